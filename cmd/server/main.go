package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livepaste/internal/adapter/httpserver"
	"github.com/pscheid92/livepaste/internal/adapter/metrics"
	"github.com/pscheid92/livepaste/internal/adapter/websocket"
	"github.com/pscheid92/livepaste/internal/paste"
	"github.com/pscheid92/livepaste/internal/platform/config"
	"github.com/pscheid92/livepaste/internal/platform/logging"
	"github.com/pscheid92/livepaste/internal/platform/version"
)

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, hub *websocket.Hub, stopSweeper func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Hijacked websocket connections outlive Shutdown; the hub closes them.
		hub.Stop()
		stopSweeper()

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "version", version.Get().String())

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	wsMetrics := metrics.NewWebSocketMetrics(registry)
	pasteMetrics := metrics.NewPasteMetrics(registry)

	store := paste.NewStore(cfg.PasteTTL(), clock, pasteMetrics)
	stopSweeper := store.StartExpiryTimer(cfg.ExpirySweepInterval)
	slog.Info("Paste store ready", "ttl", store.TTL(), "sweep_interval", cfg.ExpirySweepInterval)

	hub := websocket.NewHub(store, clock, wsMetrics)

	srv, err := httpserver.NewServer(cfg, store, hub,
		httpserver.Metrics{Registry: registry, HTTP: httpMetrics, WebSocket: wsMetrics},
		[]httpserver.HealthCheck{{Name: "hub", Check: hub.Check}},
	)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(cfg, srv, hub, stopSweeper)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
