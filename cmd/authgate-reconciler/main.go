package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/authgate/pkg/config"
	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/reconcile"
	"github.com/platinummonkey/authgate/pkg/storage"
	"github.com/platinummonkey/authgate/pkg/users"
)

var (
	runOnce     = flag.Bool("run-once", false, "Run a single reconcile pass and exit")
	schedule    = flag.String("schedule", "", "Cron schedule overriding AUTHGATE_RECONCILE_SCHEDULE")
	metricsAddr = flag.String("metrics-addr", "", "Address to serve /metrics on (disabled when empty)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if *schedule != "" {
		cfg.Reconcile.Schedule = *schedule
	}

	logger := setupLogger(cfg.Observability.LogLevel.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	db, err := storage.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to apply schema")
	}

	provider, err := identity.NewCognitoProvider(ctx, cfg.Identity, identity.WithMetrics(metrics))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create identity provider")
	}
	defer provider.Close()

	reconciler := reconcile.NewReconciler(
		users.NewSQLStore(db, users.WithStoreMetrics(metrics)),
		provider,
		logger,
		reconcile.WithMetrics(metrics),
		reconcile.WithBatchSize(cfg.Reconcile.BatchSize),
	)

	if *runOnce {
		if _, err := reconciler.Run(ctx); err != nil {
			logger.WithError(err).Fatal("Reconcile failed")
		}
		return
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, registry, logger)
	}

	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	_, err = c.AddFunc(cfg.Reconcile.Schedule, func() {
		if _, err := reconciler.Run(ctx); err != nil {
			logger.WithError(err).Error("Reconcile run failed")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to schedule reconciler")
	}

	c.Start()
	logger.WithField("schedule", cfg.Reconcile.Schedule).Info("authgate reconciler started")

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	// Wait for an in-flight run to observe cancellation
	<-c.Stop().Done()

	logger.Info("Reconciler stopped")
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}

func serveMetrics(addr string, registry *prometheus.Registry, logger logrus.FieldLogger) {
	mux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(mux, registry)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Metrics server failed")
	}
}
