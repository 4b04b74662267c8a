package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/internal/infrastructure/artifact"
	"github.com/med2305/mlops/internal/infrastructure/config"
	"github.com/med2305/mlops/internal/infrastructure/messaging"
	"github.com/med2305/mlops/internal/infrastructure/metrics"
	"github.com/med2305/mlops/internal/infrastructure/postgres"
	grpcpresentation "github.com/med2305/mlops/internal/presentation/grpc"
	"github.com/med2305/mlops/internal/presentation/rest"
	"github.com/med2305/mlops/internal/presentation/stream"
	"github.com/med2305/mlops/pkg/auth"
	pkgkafka "github.com/med2305/mlops/pkg/kafka"
	"github.com/med2305/mlops/pkg/observability"
	pgutil "github.com/med2305/mlops/pkg/postgres"
	"github.com/med2305/mlops/pkg/tlsutil"
)

const serviceName = "fraudd"

func main() {
	if err := run(); err != nil {
		slog.Error("fraudd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting fraudd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"artifact_sources", cfg.ArtifactSources,
		"threshold", cfg.FraudThreshold,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return err
	}
	defer observability.ShutdownMetrics(context.Background(), meterProvider)

	recorder, err := metrics.NewRecorder(meterProvider.Meter("github.com/med2305/mlops/fraudd"))
	if err != nil {
		return err
	}

	// Postgres backs the audit log and the bundle store when configured.
	var (
		pool        *pgxpool.Pool
		predictions port.PredictionRepository
		bundleStore port.BundleStore
		dbPinger    rest.Pinger
	)
	if cfg.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(ctx, time.Minute)
		pool, err = pgutil.NewPool(dbCtx, pgutil.Config{URL: cfg.DatabaseURL, ApplicationName: serviceName, ConnectTimeout: 30 * time.Second})
		dbCancel()
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")

		if cfg.RunMigrations {
			if err := pgutil.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return err
			}
			logger.Info("database migrations applied", "path", cfg.MigrationsPath)
		}
		predictions = postgres.NewPredictionRepository(pool)
		bundleStore = postgres.NewBundleRepository(pool)
		dbPinger = pool
	} else {
		logger.Info("DATABASE_URL not set, prediction audit log disabled")
	}

	kafkaCfg := pkgkafka.Config{
		Brokers:       pkgkafka.ParseBrokers(cfg.KafkaBrokers),
		ConsumerGroup: cfg.ScoringConsumerGroup,
	}
	var publisher port.EventPublisher = messaging.NewLogPublisher(logger)
	if len(kafkaCfg.Brokers) > 0 {
		producer, err := pkgkafka.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.FraudEventsTopic, logger)
		logger.Info("publishing fraud events to kafka", "topic", cfg.FraudEventsTopic)
	}

	sources, err := artifact.ParseSources(cfg.ArtifactSources, bundleStore, 10*time.Second)
	if err != nil {
		return err
	}
	loader := artifact.NewLoader(sources, cfg.ArtifactLoadTimeout, recorder, logger)
	holder := artifact.NewHolder()

	scorer, err := service.NewScorer(cfg.FraudThreshold)
	if err != nil {
		return err
	}
	aggregator := service.NewBatchAggregator(scorer, cfg.BatchWorkers)

	predictUC := usecase.NewPredictTransaction(holder, scorer, predictions, publisher, recorder, logger)
	batchUC := usecase.NewBatchPredict(holder, aggregator, cfg.BatchMaxSize, predictions, publisher, recorder, logger)
	modelInfoUC := usecase.NewGetModelInfo(holder, scorer.Threshold())
	getPredictionUC := usecase.NewGetPrediction(predictions)
	reloadUC := usecase.NewReloadBundle(loader, holder, publisher, logger)

	// gRPC server.
	grpcCfg := grpcpresentation.ServerConfig{Address: cfg.GRPCAddress(), Reflection: cfg.GRPCReflection}
	if cfg.JWTSecret != "" {
		grpcCfg.JWT, err = auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: auth.DefaultIssuer})
		if err != nil {
			return err
		}
	}
	if cfg.TLSCertFile != "" {
		grpcCfg.Creds, err = tlsutil.ServerCredentials(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return err
		}
	}
	grpcHandler := grpcpresentation.NewScoringHandler(predictUC, batchUC, modelInfoUC, grpcCfg.JWT != nil, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, grpcCfg, logger)

	// HTTP server.
	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Scoring:      rest.NewScoringHandler(predictUC, batchUC, modelInfoUC, getPredictionUC, logger),
			Health:       rest.NewHealthHandler(serviceName, holder, dbPinger, logger),
			Metrics:      metricsHandler,
			RateLimitRPS: cfg.RateLimitRPS,
			Logger:       logger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	reload := func(ctx context.Context) {
		if _, err := reloadUC.Execute(ctx); err != nil {
			logger.Error("bundle load failed", "error", err, "serving", holder.Current() != nil)
		}
		grpcServer.SetServing(holder.Current() != nil)
	}
	reload(ctx)
	if holder.Current() == nil {
		logger.Error("no bundle could be loaded, scoring endpoints answer 503 until a reload succeeds (send SIGHUP)")
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if cfg.ScoringInputTopic != "" {
		consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.ScoringInputTopic,
			stream.NewScoringConsumer(predictUC, logger).Handle, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("scoring consumer error: %w", err)
			}
		}()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logger.Info("fraudd started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	var runErr error
loop:
	for {
		select {
		case <-hup:
			logger.Info("SIGHUP received, reloading bundle")
			reload(ctx)
		case <-ctx.Done():
			logger.Info("shutdown signal received")
			break loop
		case runErr = <-errCh:
			logger.Error("server error", "error", runErr)
			break loop
		}
	}

	logger.Info("shutting down fraudd")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("fraudd stopped")
	return runErr
}
