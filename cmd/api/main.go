package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rakishiii/production-scheduler/internal/application"
	"github.com/Rakishiii/production-scheduler/internal/domain"
	mongoRepo "github.com/Rakishiii/production-scheduler/internal/infrastructure/mongodb"
	"github.com/Rakishiii/production-scheduler/internal/infrastructure/shopfloor"
	"github.com/Rakishiii/production-scheduler/pkg/cloudevents"
	"github.com/Rakishiii/production-scheduler/pkg/kafka"
	"github.com/Rakishiii/production-scheduler/pkg/logging"
	"github.com/Rakishiii/production-scheduler/pkg/metrics"
	"github.com/Rakishiii/production-scheduler/pkg/middleware"
	"github.com/Rakishiii/production-scheduler/pkg/mongodb"
	"github.com/Rakishiii/production-scheduler/pkg/outbox"
	"github.com/Rakishiii/production-scheduler/pkg/resilience"
	"github.com/Rakishiii/production-scheduler/pkg/tracing"
)

const serviceName = "production-scheduler"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting production-scheduler API")

	config := loadConfig()
	ctx := context.Background()

	shop, err := shopfloor.Load(config.ShopFloorFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load shop floor")
		os.Exit(1)
	}
	logger.Info("Shop floor loaded",
		"stages", shop.Routing.Len(),
		"resources", len(shop.Catalog.Entries()),
		"workHoursPerDay", shop.WorkHoursPerDay,
	)

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		// keep serving without traces
		logger.WithError(err).Error("Failed to initialize tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint, "enabled", tracingConfig.Enabled)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	if config.Kafka.CreateTopics {
		if err := kafka.EnsureTopics(ctx, config.Kafka.Brokers, kafka.DefaultTopicConfigs(config.Kafka.ReplicationFactor)); err != nil {
			logger.WithError(err).Warn("Failed to provision Kafka topics")
		}
	}

	kafkaProducer := kafka.NewProducer(config.Kafka)
	defer kafkaProducer.Close()
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceScheduler)

	orderRepo := mongoRepo.NewOrderRepository(instrumentedMongo, eventFactory, shop.Routing)
	absenceRepo := mongoRepo.NewAbsenceRepository(instrumentedMongo)

	outboxPublisher := outbox.NewPublisher(
		orderRepo.GetOutboxRepository(),
		instrumentedProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: config.OutboxInterval,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("mongodb"), logger.Logger, m)
	scheduler := domain.NewScheduler(shop,
		domain.WithStagePrecedence(config.StagePrecedence),
		domain.WithSkipCompleted(config.SkipCompleted),
	)

	productionService := application.NewProductionApplicationService(
		orderRepo,
		absenceRepo,
		shop,
		scheduler,
		m,
		logger,
		application.WithGuard(resilience.NewGuard(breaker, resilience.DefaultRetryConfig())),
		application.WithDateOverride(config.AllowDateOverride),
	)

	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger)
	middlewareConfig.RequestTimeout = config.RequestTimeout
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, instrumentedMongo.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	registerRoutes(router.Group("/api/v1"), productionService, logger)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.RequestTimeout + 5*time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
