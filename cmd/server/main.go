package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/api"
	"github.com/UkralStul/interactor/internal/app"
	"github.com/UkralStul/interactor/internal/config"
	"github.com/UkralStul/interactor/internal/logger"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		// logger config is not available yet
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := app.NewSession(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start session", zap.Error(err))
	}

	go func() {
		if err := session.Feed.Load(ctx); err != nil {
			log.Error("initial feed load failed", zap.Error(err))
		}
	}()

	handler := api.NewHandler(session.Feed, session.Composer, log.Named("api"))
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(handler, cfg.CorsAllowedOrigins),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("source", cfg.Source))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	if err := session.Close(); err != nil {
		log.Warn("failed to close source", zap.Error(err))
	}
}
