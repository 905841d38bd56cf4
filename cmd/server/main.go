package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ondrej-secretkeylabs/txfeed/service/bitcoin"
	"github.com/ondrej-secretkeylabs/txfeed/service/config"
	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/metrics"
	"github.com/ondrej-secretkeylabs/txfeed/service/server"
	"github.com/ondrej-secretkeylabs/txfeed/service/spark"
	"github.com/ondrej-secretkeylabs/txfeed/service/stacks"
	"github.com/ondrej-secretkeylabs/txfeed/service/starknet"
	"github.com/ondrej-secretkeylabs/txfeed/service/streams"
	"github.com/ondrej-secretkeylabs/txfeed/service/temporal"
)

func main() {
	// Load and validate configuration from environment
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	store := db.NewStore(dbPool)

	// Prometheus metrics collector, exposed on /metrics by the HTTP server
	metricsCollector := metrics.NewMetrics(nil)

	// Chain API clients for the on-demand activity endpoint. The worker
	// builds its own set for scheduled polling.
	bitcoinClient := bitcoin.NewClient(cfg.BitcoinAPIURL, nil, metricsCollector, logger)
	stacksClient := stacks.NewClient(cfg.StacksAPIURL, nil, metricsCollector, logger)
	starknetClient := starknet.NewClient(cfg.StarknetAPIURL, nil, metricsCollector, logger)
	sparkClient := spark.NewClient(cfg.SparkAPIURL, nil, metricsCollector, logger)

	factory := streams.NewFactory(bitcoinClient, stacksClient, starknetClient, sparkClient)
	logger.Info("initialized chain API clients",
		"bitcoin", cfg.BitcoinAPIURL,
		"stacks", cfg.StacksAPIURL,
		"starknet", cfg.StarknetAPIURL,
		"spark", cfg.SparkAPIURL,
	)

	// Temporal client for wallet polling schedule management
	temporalClient, err := temporal.NewClient(
		cfg.TemporalHost,
		cfg.TemporalNamespace,
		cfg.TemporalTaskQueue,
		logger,
	)
	if err != nil {
		logger.Error("failed to create temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("connected to temporal",
		"host", cfg.TemporalHost,
		"namespace", cfg.TemporalNamespace,
	)

	httpServer := server.New(cfg.ServerAddr, cfg, store, temporalClient, factory, metricsCollector, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
