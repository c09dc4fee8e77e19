package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatgrid/realtime-api/config"
	"github.com/chatgrid/realtime-api/internal/devseed"
	"github.com/chatgrid/realtime-api/internal/gateway"
	"github.com/chatgrid/realtime-api/internal/observability/statsd"
)

const shutdownWaitTimeout = 10 * time.Second

// Run wires the full application and blocks until a shutdown signal is
// received.
func Run(cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	db, err := ConnectDB(DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return err
	}
	defer closeQuietly(db.Close, "database", logger)

	if cfg.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	if cfg.IsDev {
		if err := devseed.Run(ctx, db, logger); err != nil {
			logger.Warn("dev seeding failed", "error", err)
		}
	}

	redisClient, err := ConnectRedis(DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		return err
	}
	defer closeQuietly(redisClient.Close, "redis", logger)

	metrics := buildMetrics(cfg.Observability, logger)
	defer closeQuietly(metrics.Close, "statsd", logger)

	auth, err := BuildAuth(AuthDeps{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	gw := gateway.New(gateway.Options{
		Tokens:  auth.Tokens,
		Logger:  logger,
		Metrics: metrics,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.Gateway.OriginAllowed(r.Header.Get("Origin"))
		},
	})

	server := StartHTTPServer(&HTTPServerConfig{
		Config:  cfg,
		Auth:    auth,
		Gateway: gw,
		Logger:  logger,
	})

	return waitForShutdown(ctx, server, logger)
}

// buildMetrics configures the StatsD sink. A disabled client is returned
// when metrics are off so callers never need a nil check.
func buildMetrics(cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		disabled, _ := statsd.NewClient(statsd.Config{Logger: logger})
		return disabled
	}
	if client.Enabled() {
		logger.Info("metrics enabled", "statsd_address", cfg.Metrics.StatsdAddress)
	}
	return client
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops the server.
func waitForShutdown(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWaitTimeout)
	defer cancel()
	return ShutdownHTTPServer(shutdownCtx, server, logger)
}

func closeQuietly(closeFn func() error, name string, logger *slog.Logger) {
	if err := closeFn(); err != nil {
		logger.Warn("close failed", "component", name, "error", err)
	}
}
