// Package observability provides structured logging, Prometheus metrics,
// health checks, graceful shutdown and OpenTelemetry tracing for the gateway.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("operation", "signup").Info("account created")
//
// Handlers pick up the request-scoped logger with FromContext, which tags
// entries with the request ID set by the request ID middleware.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordAuthOperation("login", "challenge", elapsed)
//
// All Record helpers accept a nil *Metrics so components can run without
// instrumentation in tests.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, version)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// Spans are created with Tracer(); the provider adapter and the SQL user
// store open one span per remote call.
package observability
