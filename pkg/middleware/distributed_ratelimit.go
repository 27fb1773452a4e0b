package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// fixedWindow increments the counter and starts its window on first use.
// Returns {count, pttl}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// DistributedRateLimiter implements Limiter with a Redis fixed-window counter
// shared by every instance
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

func (rl *DistributedRateLimiter) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", rl.prefix, key)
}

// Allow counts the request against key's current window, which admits
// RequestsPerWindow+BurstSize requests. On Redis errors it returns an
// allowing decision together with the error.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	limit := rl.config.Limit()
	res, err := fixedWindow.Run(ctx, rl.redis, []string{rl.redisKey(key)}, rl.config.WindowDuration.Milliseconds()).Result()
	if err != nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, fmt.Errorf("redis error: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	count, _ := values[0].(int64)
	pttl, _ := values[1].(int64)

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: time.Duration(pttl) * time.Millisecond,
	}, nil
}

// HealthCheck verifies Redis connectivity for rate limiting; it is
// registered with the readiness check
func (rl *DistributedRateLimiter) HealthCheck(ctx context.Context) error {
	return rl.redis.Ping(ctx).Err()
}
