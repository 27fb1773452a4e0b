package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/authgate/pkg/api"
	"github.com/platinummonkey/authgate/pkg/authflow"
	"github.com/platinummonkey/authgate/pkg/config"
	"github.com/platinummonkey/authgate/pkg/httputil"
	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/middleware"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/storage"
	"github.com/platinummonkey/authgate/pkg/users"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("init opentelemetry: %w", err)
	}
	shutdown.RegisterShutdownFunc("opentelemetry", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	db, err := storage.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}
	shutdown.RegisterShutdownFunc("database", func(context.Context) error { return db.Close() })

	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			_ = shutdown.Shutdown(context.Background())
			return err
		}
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error { return redisClient.Close() })
	}

	provider, err := identity.NewCognitoProvider(ctx, cfg.Identity, identity.WithMetrics(metrics))
	if err != nil {
		_ = shutdown.Shutdown(context.Background())
		return err
	}
	shutdown.RegisterShutdownFunc("identity provider", func(context.Context) error { return provider.Close() })

	var store users.Store = users.NewSQLStore(db, users.WithStoreMetrics(metrics))
	if cfg.Cache.Size > 0 {
		store = users.NewCachedStore(store, cfg.Cache.Size, cfg.Cache.TTL, metrics)
	}

	coordinator := authflow.NewCoordinator(provider, store,
		authflow.WithLogger(logger),
		authflow.WithMetrics(metrics),
	)

	serverOpts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		serverOpts = append(serverOpts, api.WithCORSOrigins(cfg.Server.CORSOrigins...))
	}
	healthChecker := observability.NewHealthChecker(db, version)
	if cfg.RateLimit.Enabled {
		rateLimit, err := newRateLimit(ctx, cfg.RateLimit, redisClient, healthChecker, metrics, logger)
		if err != nil {
			_ = shutdown.Shutdown(context.Background())
			return err
		}
		serverOpts = append(serverOpts, api.WithMiddleware(rateLimit.Handler))
	}

	apiServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           otelhttp.NewHandler(api.NewServer(coordinator, serverOpts...), "authgate"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:              cfg.Server.HealthAddress(),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown.RegisterServer(apiServer)
	shutdown.RegisterServer(healthServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("Starting authgate API server")
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("Starting health server")
		return serve(healthServer)
	})
	if metrics != nil {
		g.Go(func() error {
			reportDBStats(gctx, db.Stats, metrics, logger)
			return nil
		})
	}
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("authgate stopped")
	return nil
}

// newRateLimit keys clients through the trusted proxies and picks the shared
// Redis limiter when Redis is configured
func newRateLimit(
	ctx context.Context,
	cfg config.RateLimitConfig,
	redisClient *redis.Client,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger *observability.Logger,
) (*middleware.RateLimitMiddleware, error) {
	proxies, err := httputil.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	limits := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.Requests,
		WindowDuration:    cfg.Window,
		BurstSize:         cfg.Burst,
	}

	var (
		limiter middleware.Limiter
		name    string
	)
	if redisClient != nil {
		distributed := middleware.NewDistributedRateLimiter(redisClient, limits, "authgate:ratelimit")
		health.AddCheck("rate_limiter", distributed.HealthCheck)
		limiter, name = distributed, "redis"
	} else {
		memory := middleware.NewRateLimiter(limits)
		memory.StartCleanup(ctx)
		limiter, name = memory, "memory"
	}

	return middleware.NewRateLimitMiddleware(limiter, name,
		middleware.WithRateLimitMetrics(metrics),
		middleware.WithRateLimitLogger(logger),
		middleware.WithTrustedProxies(proxies),
	), nil
}

// serve runs srv until it is shut down
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s: %w", srv.Addr, err)
	}
	return nil
}
