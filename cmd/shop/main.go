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

	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/shopflow/internal/auth"
	"github.com/joao-fontenele/shopflow/internal/catalog"
	"github.com/joao-fontenele/shopflow/internal/config"
	"github.com/joao-fontenele/shopflow/internal/messaging"
	"github.com/joao-fontenele/shopflow/internal/orders"
	"github.com/joao-fontenele/shopflow/internal/sales"
	"github.com/joao-fontenele/shopflow/internal/storage"
	"github.com/joao-fontenele/shopflow/internal/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid sales timezone", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, serviceVersion, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to init tracer provider", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, serviceVersion)
	if err != nil {
		logger.Error("failed to init meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	db, err := storage.Open(ctx, cfg.PostgresURL, storage.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var publisher orders.EventPublisher
	if cfg.KafkaEnabled() {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderPlacedTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	orderMetrics, err := orders.NewMetrics(otel.Meter("orders"))
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewCatalogRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	aggregator := sales.NewAggregator(db, loc, logger)
	reports := sales.NewReports(db)

	orderService := orders.NewService(catalogRepo, orderRepo, aggregator, publisher, orderMetrics, logger)

	catalogHandler := catalog.NewHandler(catalogRepo, logger)
	orderHandler := orders.NewHandler(orderService, logger)
	reportHandler := sales.NewHandler(reports, logger)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(verifier, logger, telemetry.WithHTTPRoute(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(verifier, logger, auth.RequireRole(auth.RoleAdmin, telemetry.WithHTTPRoute(h)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metricsHandler)

	mux.Handle("POST /orders", authed(orderHandler.HandleCreate))
	mux.Handle("GET /orders/history", authed(orderHandler.HandleHistory))

	mux.Handle("GET /products", authed(catalogHandler.HandleListProducts))
	mux.Handle("GET /products/{id}", authed(catalogHandler.HandleGetProduct))
	mux.Handle("POST /products", admin(catalogHandler.HandleCreateProduct))
	mux.Handle("POST /products/{id}/restock", admin(catalogHandler.HandleRestock))
	mux.Handle("POST /categories", admin(catalogHandler.HandleCreateCategory))
	mux.Handle("DELETE /categories/{id}", admin(catalogHandler.HandleDeleteCategory))

	mux.Handle("GET /sales-report/category-wise", admin(reportHandler.HandleCategoryWise))
	mux.Handle("GET /sales-report/top-selling", admin(reportHandler.HandleTopSelling))
	mux.Handle("GET /sales-report/worst-selling", admin(reportHandler.HandleWorstSelling))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.WrapHandler(mux, cfg.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting shop service", "port", cfg.Port, "kafka", cfg.KafkaEnabled(), "sales_timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
