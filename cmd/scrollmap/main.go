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

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/pandemic-scrollmap/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/pandemic-scrollmap/internal/adapter/kafka"
	"github.com/couchcryptid/pandemic-scrollmap/internal/app"
	"github.com/couchcryptid/pandemic-scrollmap/internal/config"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/couchcryptid/pandemic-scrollmap/internal/source"
)

// sessionIdle is how long a viewer session survives without events.
const sessionIdle = 30 * time.Minute

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Scene-change notifications (feature-flagged via KAFKA_ENABLED).
	var (
		hooks    []app.SessionListeners
		notifier *kafkaadapter.Notifier
	)
	if cfg.KafkaEnabled {
		notifier = kafkaadapter.NewNotifier(cfg, clock, logger)
		hooks = append(hooks, notifier)
		logger.Info("scene notifications enabled", "topic", cfg.KafkaSceneTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("scene notifications disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Options{
		ProgressRateHz: cfg.ProgressRateHz,
		SessionIdle:    sessionIdle,
	}, clock, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server so liveness answers while inputs load.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load startup inputs. Any failure is fatal for the dashboard: the server
	// stays up only to explain the failure.
	fetcher := source.NewFetcher(cfg.FetchTimeout, logger)
	appCtx, err := app.Load(ctx, cfg, fetcher, clock, logger, metrics, hooks...)
	if err != nil {
		logger.Error("startup load failed", "error", err)
		srv.Failed(err)
	} else {
		srv.Ready(appCtx)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if notifier != nil {
		if err := notifier.Close(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
