package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/shopflow/internal/config"
	"github.com/joao-fontenele/shopflow/internal/messaging"
	"github.com/joao-fontenele/shopflow/internal/sales"
	"github.com/joao-fontenele/shopflow/internal/storage"
	"github.com/joao-fontenele/shopflow/internal/telemetry"
	"github.com/joao-fontenele/shopflow/internal/worker"
)

const serviceVersion = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if !cfg.KafkaEnabled() {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid sales timezone", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName+"-worker", serviceVersion, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to init tracer provider", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	db, err := storage.Open(ctx, cfg.PostgresURL, storage.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.OrderPlacedTopic, cfg.WorkerGroupID)
	defer func() { _ = consumer.Close() }()

	aggregator := sales.NewAggregator(db, loc, logger)
	handler := worker.NewSalesReplayHandler(aggregator, logger)

	logger.Info("starting sales replay worker",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.OrderPlacedTopic,
		"group_id", cfg.WorkerGroupID,
	)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
