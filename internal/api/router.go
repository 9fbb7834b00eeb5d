// Package api exposes the feed, the composer and the per-post views over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires every route onto a chi router.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", h.GetFeed)
		r.Get("/feed/ws", h.StreamFeed)

		r.Route("/composer", func(r chi.Router) {
			r.Get("/", h.GetComposer)
			r.Put("/", h.UpdateComposer)
			r.Post("/preview", h.PreviewImage)
			r.Post("/image-error", h.ReportComposerImageError)
			r.Post("/submit", h.SubmitPost)
		})

		r.Route("/posts/{id}", func(r chi.Router) {
			r.Post("/like", h.ToggleLike)
			r.Post("/comments/toggle", h.ToggleComments)
			r.Put("/comments/draft", h.SetDraft)
			r.Post("/comments", h.SubmitComment)
			r.Post("/image-error", h.ReportPostImageError)
		})
	})
	return r
}

// requestLogger logs one line per request with zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
