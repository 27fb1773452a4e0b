// Package middleware provides HTTP middleware for rate limiting and locale negotiation.
//
// # Rate Limiting
//
// Two Limiter implementations share one HTTP middleware. The in-memory
// token bucket suits a single instance:
//
//	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
//		RequestsPerWindow: 30,
//		WindowDuration:    time.Minute,
//		BurstSize:         5,
//	})
//	limiter.StartCleanup(ctx)
//	router.Use(middleware.NewRateLimitMiddleware(limiter, "memory").Handler)
//
// The Redis limiter counts requests in a fixed window shared by every
// instance and fails open when Redis is unreachable:
//
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "authgate:ratelimit")
//	router.Use(middleware.NewRateLimitMiddleware(limiter, "redis").Handler)
//
// Clients are keyed by IP address. Auth endpoints are unauthenticated by
// nature, so there is no per-user tier.
//
// # Locale
//
// LocaleMiddleware resolves Accept-Language to a supported locale and
// stores it in the request context for the message catalog.
package middleware
