// Package app assembles a session (source, feed controller and composer)
// from configuration. Both binaries start here.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/composer"
	"github.com/UkralStul/interactor/internal/config"
	"github.com/UkralStul/interactor/internal/feed"
	"github.com/UkralStul/interactor/internal/source"
	"github.com/UkralStul/interactor/internal/source/cached"
	"github.com/UkralStul/interactor/internal/source/dummyjson"
	"github.com/UkralStul/interactor/internal/source/inmemory"
	"github.com/UkralStul/interactor/internal/source/postgres"
)

// Session is everything one user interacts with.
type Session struct {
	Feed     *feed.Controller
	Composer *composer.Composer

	closers []func() error
}

// Close waits for pending comment echoes and releases the source.
func (s *Session) Close() error {
	s.Feed.Wait()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewSession builds a session on the source cfg selects.
func NewSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	src, closers, err := NewSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	f := feed.New(src,
		feed.WithLogger(log.Named("feed")),
		feed.WithPageSize(cfg.PageSize),
	)
	c := composer.New(f,
		composer.WithAckDelay(cfg.AckDelay),
		composer.WithProber(composer.NewHTTPProber(&http.Client{Timeout: cfg.HTTPTimeout})),
		composer.WithLogger(log.Named("composer")),
	)
	return &Session{Feed: f, Composer: c, closers: closers}, nil
}

// NewSource returns the configured backend, behind a Redis cache when
// REDIS_URL is set, plus the funcs that release it.
func NewSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (source.Source, []func() error, error) {
	var (
		src     source.Source
		closers []func() error
	)

	switch cfg.Source {
	case config.SourceInMemory:
		store, err := inmemory.NewSeeded(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed in-memory source: %w", err)
		}
		src = store
	case config.SourcePostgres:
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		src = store
		closers = append(closers, store.Close)
	default:
		src = dummyjson.New(cfg.SourceURL,
			dummyjson.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			dummyjson.WithLogger(log.Named("dummyjson")),
		)
	}
	log.Info("source selected", zap.String("source", cfg.Source))

	if cfg.RedisURL == "" {
		return src, closers, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// reads fall back to the backend while Redis is away
		log.Warn("redis unreachable, cache will miss", zap.Error(err))
	}

	closers = append(closers, rdb.Close)
	return cached.New(src, rdb, cfg.CacheTTL, log.Named("cache")), closers, nil
}
