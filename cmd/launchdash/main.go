package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/launchdash/internal/api"
	"github.com/star/launchdash/internal/config"
	"github.com/star/launchdash/internal/dashboard"
	"github.com/star/launchdash/internal/health"
	"github.com/star/launchdash/internal/launch"
	"github.com/star/launchdash/internal/metrics"
	"github.com/star/launchdash/internal/render"
	"github.com/star/launchdash/web"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if l, err := config.ParseLevel(cfg.LogLevel); err == nil {
		level.Set(l)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := launch.Load(ctx, cfg.Data, logger)
	if err != nil {
		logger.Error("failed to load launch dataset", "error", err)
		os.Exit(1)
	}
	metrics.SetDataset(ds.Len(), len(ds.Sites()))

	app := dashboard.New(ds)
	var ready health.Readiness
	ready.MarkReady()

	renderer := render.New(cfg.Render.Width, cfg.Render.Height)
	srv := api.NewServer(cfg.Server, logger, cfg.Auth, app, renderer, &ready, web.Content)

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "auth_enabled", cfg.Auth.Enabled, "records", ds.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
