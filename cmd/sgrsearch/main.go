package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sglre6355/sgrsearch/internal/bot"
	"github.com/sglre6355/sgrsearch/internal/logging"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	_ "github.com/sglre6355/sgrsearch/internal/modules/music_search"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/sgrsearch
var version = "dev"

func main() {
	// Configure JSON logging until the configured level is known
	logging.Setup(os.Stdout, "info")

	slog.Info("starting sgrsearch", "version", version)

	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsDone := make(chan struct{})
	if cfg.MetricsAddr != "" {
		go func() {
			defer close(metricsDone)
			if err := metrics.NewServer(cfg.MetricsAddr).Serve(ctx); err != nil {
				slog.Error("failed to serve metrics", "error", err)
			}
		}()
	} else {
		close(metricsDone)
	}

	// Create and configure bot
	b := bot.NewBot(cfg)
	b.LoadModules()

	// Start bot
	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		cancel()
		<-metricsDone
		os.Exit(1)
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	cancel()
	<-metricsDone

	slog.Info("completed bot shutdown")
}
