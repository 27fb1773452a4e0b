package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/platinummonkey/authgate/pkg/httputil"
	"github.com/platinummonkey/authgate/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate. Both limiters admit
	// RequestsPerWindow+BurstSize requests per key before rejecting.
	BurstSize int
}

// Limit is the most requests a key may make before being rejected
func (c *RateLimitConfig) Limit() int {
	return c.RequestsPerWindow + c.BurstSize
}

// DefaultRateLimitConfig returns default rate limit settings for auth endpoints
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 30,
		WindowDuration:    time.Minute,
		BurstSize:         5,
	}
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimiter implements Limiter with an in-memory token bucket per key
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.config.Limit())
}

// refillRate is tokens per second
func (rl *RateLimiter) refillRate() float64 {
	return float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds()
}

// Allow takes one token from key's bucket if one is available
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: rl.capacity(), lastUpdate: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(rl.capacity(), b.tokens+elapsed*rl.refillRate())
		b.lastUpdate = now
	}

	decision := Decision{Limit: rl.config.Limit()}
	if b.tokens >= 1 {
		b.tokens--
		decision.Allowed = true
	}
	decision.Remaining = int(b.tokens)
	if !decision.Allowed {
		missing := 1 - b.tokens
		decision.ResetAfter = time.Duration(missing * float64(rl.config.WindowDuration) / float64(rl.config.RequestsPerWindow))
	}
	return decision, nil
}

// Remaining returns the number of whole tokens left for a key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		return int(rl.capacity())
	}
	return int(b.tokens)
}

// Cleanup removes buckets idle for more than two windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
	}
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// StartCleanup runs Cleanup every window until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimitMiddleware applies a Limiter to HTTP requests keyed by client IP
type RateLimitMiddleware struct {
	limiter Limiter
	name    string
	metrics *observability.Metrics
	logger  *observability.Logger
	proxies httputil.TrustedProxies
}

// RateLimitOption configures a RateLimitMiddleware
type RateLimitOption func(*RateLimitMiddleware)

// WithRateLimitMetrics counts rejected requests
func WithRateLimitMetrics(m *observability.Metrics) RateLimitOption {
	return func(rm *RateLimitMiddleware) {
		rm.metrics = m
	}
}

// WithRateLimitLogger sets the logger used for limiter failures
func WithRateLimitLogger(logger *observability.Logger) RateLimitOption {
	return func(rm *RateLimitMiddleware) {
		rm.logger = logger
	}
}

// WithTrustedProxies honors forwarding headers from these peers when keying
// requests. Without it every request is keyed on its RemoteAddr.
func WithTrustedProxies(proxies httputil.TrustedProxies) RateLimitOption {
	return func(rm *RateLimitMiddleware) {
		rm.proxies = proxies
	}
}

// NewRateLimitMiddleware creates a rate limit middleware; name labels its metrics
func NewRateLimitMiddleware(limiter Limiter, name string, opts ...RateLimitOption) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limiter: limiter,
		name:    name,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + m.proxies.ClientIP(r)

		decision, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// Fail open: a limiter outage must not take the auth endpoints down.
			observability.FromContext(r.Context(), m.logger).
				WithError(err).
				WithField("limiter", m.name).
				Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, decision)
		if !decision.Allowed {
			m.metrics.RecordRateLimited(m.name)
			retryAfter := int(math.Ceil(decision.ResetAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteErrorBody(w, http.StatusTooManyRequests, httputil.ErrorBody{
				Error: "rate limit exceeded",
				Name:  "RateLimited",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if d.ResetAfter > 0 {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(d.ResetAfter).Unix(), 10))
	}
}
