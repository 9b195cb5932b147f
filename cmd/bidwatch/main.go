package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vutran/agribid/internal/api"
	"github.com/vutran/agribid/internal/archive"
	"github.com/vutran/agribid/internal/config"
	"github.com/vutran/agribid/internal/database"
	"github.com/vutran/agribid/internal/ingest"
	"github.com/vutran/agribid/internal/metrics"
	"github.com/vutran/agribid/internal/model"
	"github.com/vutran/agribid/internal/observe"
	"github.com/vutran/agribid/internal/reconcile"
	"github.com/vutran/agribid/internal/transport"
	"github.com/vutran/agribid/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bidwatch.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting bid watcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"hub_url", cfg.Hub.URL,
		"auctions", len(cfg.Auctions.IDs),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Metrics registry
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Optional archive: database pool + buffer + batch writer
	var (
		pool      *pgxpool.Pool
		buf       *ingest.Buffer[model.BidEvent]
		archivist *archive.Writer
	)
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		buf = ingest.NewBuffer[model.BidEvent](cfg.Archive.BufferSize)
		archivist = archive.NewWriter(archive.Config{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}, buf, pool, logger, m)

		if err := archivist.Start(ctx); err != nil {
			logger.Error("failed to start archive writer", "error", err)
			os.Exit(1)
		}

		logger.Info("archive writer running")
	}

	// Create API client
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Real-time hub
	hub := transport.NewHub(transport.HubConfig{
		URL:               cfg.Hub.URL,
		APIKey:            cfg.API.APIKey,
		WriteTimeout:      cfg.Hub.WriteTimeout,
		ReconnectBaseWait: cfg.Hub.ReconnectBaseDelay,
		ReconnectMaxWait:  cfg.Hub.ReconnectMaxDelay,
	}, logger)

	// One observation per configured auction
	observations := make([]*observe.Observation, 0, len(cfg.Auctions.IDs))
	for _, auctionID := range cfg.Auctions.IDs {
		raw, err := apiClient.GetAuction(ctx, auctionID)
		if err != nil {
			logger.Error("failed to fetch auction metadata", "auction_id", auctionID, "error", err)
			os.Exit(1)
		}

		obs := observe.New(raw.ToModel(), apiClient, observe.Config{
			Reconcile: reconcile.Config{
				MaxRetries:  cfg.Reconcile.MaxRetries,
				BackoffStep: cfg.Reconcile.BackoffStep,
				Timeout:     cfg.Reconcile.FetchTimeout,
			},
			QueueSize: cfg.Auctions.QueueSize,
			Archive:   buf,
		}, logger, m)

		hub.OnBidPlaced(obs.HandleBidPlaced)
		hub.OnBuyNow(obs.HandleBuyNow)

		if err := obs.Start(ctx); err != nil {
			logger.Error("failed to start observation", "auction_id", auctionID, "error", err)
			os.Exit(1)
		}
		observations = append(observations, obs)

		hub.Subscribe(auctionID)
	}

	if err := hub.Start(ctx); err != nil {
		logger.Error("failed to start hub client", "error", err)
		os.Exit(1)
	}

	// Health + metrics server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/health", healthHandler(hub, observations, pool))

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("bid watcher running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	hub.Stop(shutdownCtx)
	for _, obs := range observations {
		obs.Stop(shutdownCtx)
	}
	if archivist != nil {
		archivist.Stop(shutdownCtx)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("bid watcher stopped")
}

// healthHandler reports hub connectivity, per-auction view state, and
// archive database health.
func healthHandler(hub *transport.Hub, observations []*observe.Observation, pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		if hub.IsConnected() {
			health.Components["hub"] = "connected"
		} else {
			health.Status = "degraded"
			health.Components["hub"] = "disconnected"
		}

		auctions := make(map[string]interface{}, len(observations))
		for _, obs := range observations {
			snap := obs.Snapshot()
			auctions[snap.AuctionID] = map[string]interface{}{
				"events":        len(snap.History),
				"current_price": snap.CurrentPrice.String(),
				"unread_bids":   snap.UnreadNewBids,
			}
		}
		health.Components["auctions"] = auctions

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
