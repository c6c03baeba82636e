package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/datasource"
	"github.com/BuongiornoTexas/pwdusage/pkg/engine"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/metrics"
	"github.com/BuongiornoTexas/pwdusage/pkg/server"
)

func main() {
	// init packages
	store := config.Configured()
	eng := engine.New(store, datasource.InfluxFactory)
	srv := server.Configured(eng)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	if os.Getenv("USAGE_DEBUG") != "" {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := eng.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close engine", "error", err)
		}
	}()

	// Load the configuration before serving. A bad document is not fatal:
	// the server still comes up so the reload endpoint can pick up a fix.
	if err := eng.Reload(ctx); err != nil {
		metrics.ObserveReload(metrics.ResultError)
		log.Ctx(ctx).ErrorContext(ctx, "initial configuration load failed", "error", err)
	} else {
		metrics.ObserveReload(metrics.ResultSuccess)
	}

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
