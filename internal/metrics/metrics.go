package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteRequests counts requests to the remote post source by endpoint and outcome.
	RemoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interactor_remote_requests_total",
		Help: "Total number of requests sent to the remote post source",
	}, []string{"endpoint", "outcome"})

	// RemoteLatency records remote request latency by endpoint.
	RemoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interactor_remote_request_duration_seconds",
		Help:    "Remote post source request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// FeedMutations counts local state mutations by operation.
	FeedMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interactor_feed_mutations_total",
		Help: "Total number of local feed mutations",
	}, []string{"op"})

	// SnapshotSubscribers is the number of live snapshot subscriptions.
	SnapshotSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interactor_snapshot_subscribers",
		Help: "Number of active feed snapshot subscribers",
	})

	// CacheLookups counts source cache lookups by key kind and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interactor_cache_lookups_total",
		Help: "Total number of source cache lookups",
	}, []string{"kind", "result"})
)

// ObserveRemote records one finished remote request.
func ObserveRemote(endpoint string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RemoteRequests.WithLabelValues(endpoint, outcome).Inc()
	RemoteLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
