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

	"github.com/sglre6355/sgrsearch/internal/logging"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/infrastructure"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/infrastructure/bilibili"
	"github.com/sglre6355/sgrsearch/internal/plugin"
	"golang.org/x/sync/errgroup"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/sgrsearch-bilibili
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Setup(os.Stdout, "info")

	cfg, err := plugin.LoadServerConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	slog.Info("starting sgrsearch-bilibili", "version", version, "http_client", cfg.HTTPClient)

	transport, err := newTransport(cfg)
	if err != nil {
		slog.Error("failed to create http client", "error", err)
		os.Exit(1)
	}

	server := plugin.NewServer(cfg.RequestTimeout, bilibili.NewClient(transport))

	mux := http.NewServeMux()
	mux.Handle("/", server)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("serving plugin", "address", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down plugin server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.NewServer(cfg.MetricsAddr).Serve(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("plugin server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("completed plugin shutdown")
}

func newTransport(cfg *plugin.ServerConfig) (ports.Transport, error) {
	if cfg.HTTPClient == "browser" {
		return infrastructure.NewBrowserTransport(cfg.HTTPTimeout)
	}
	return infrastructure.NewHTTPTransport(cfg.HTTPTimeout), nil
}
