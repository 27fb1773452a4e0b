package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/storage"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTHGATE_COGNITO_ACCESS_KEY", "AKIAEXAMPLE")
	t.Setenv("AUTHGATE_COGNITO_SECRET_KEY", "secret")
	t.Setenv("AUTHGATE_COGNITO_REGION", "us-east-1")
	t.Setenv("AUTHGATE_COGNITO_CLIENT_ID", "client-123")
	t.Setenv("AUTHGATE_COGNITO_DOMAIN", "auth.example.com")
	t.Setenv("AUTHGATE_DATABASE_URL", "postgres://localhost/authgate")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.HealthAddress())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Nil(t, cfg.Server.CORSOrigins)

	assert.Equal(t, "us-east-1", cfg.Identity.Region)
	assert.Empty(t, cfg.Identity.UserPoolID)

	assert.Equal(t, storage.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Database.MaxConns)

	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.RateLimit.RedisURL)

	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "authgate", cfg.Observability.OTelServiceName)

	assert.Equal(t, "@every 10m", cfg.Reconcile.Schedule)
	assert.Equal(t, 100, cfg.Reconcile.BatchSize)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTHGATE_PORT", "8000")
	t.Setenv("AUTHGATE_CORS_ORIGINS", " https://a.example.com ,https://b.example.com,")
	t.Setenv("AUTHGATE_COGNITO_USER_POOL_ID", "us-east-1_abc")
	t.Setenv("AUTHGATE_COGNITO_ENDPOINT", "http://localhost:9229")
	t.Setenv("AUTHGATE_DATABASE_DRIVER", "SQLITE3")
	t.Setenv("AUTHGATE_DATABASE_URL", "file:authgate.db")
	t.Setenv("AUTHGATE_USER_CACHE_SIZE", "0")
	t.Setenv("AUTHGATE_RATE_LIMIT_REQUESTS", "100")
	t.Setenv("AUTHGATE_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("AUTHGATE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUTHGATE_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")
	t.Setenv("AUTHGATE_LOG_LEVEL", "debug")
	t.Setenv("AUTHGATE_OTEL_ENABLED", "1")
	t.Setenv("AUTHGATE_OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("AUTHGATE_RECONCILE_SCHEDULE", "*/5 * * * *")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "us-east-1_abc", cfg.Identity.UserPoolID)
	assert.Equal(t, "http://localhost:9229", cfg.Identity.Endpoint)
	assert.Equal(t, storage.DriverSQLite, cfg.Database.Driver)
	assert.Zero(t, cfg.Cache.Size)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RateLimit.RedisURL)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.RateLimit.TrustedProxies)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, 0.25, cfg.Observability.OTelSampleRatio)
	assert.Equal(t, "*/5 * * * *", cfg.Reconcile.Schedule)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	_, err := LoadConfig()
	require.Error(t, err)

	for _, name := range []string{
		"AUTHGATE_COGNITO_ACCESS_KEY",
		"AUTHGATE_COGNITO_SECRET_KEY",
		"AUTHGATE_COGNITO_REGION",
		"AUTHGATE_COGNITO_CLIENT_ID",
		"AUTHGATE_COGNITO_DOMAIN",
		"AUTHGATE_DATABASE_URL",
	} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTHGATE_RATE_LIMIT_REQUESTS", "lots")
	t.Setenv("AUTHGATE_USER_CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	setRequired(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"same ports", func(c *Config) { c.Server.HealthPort = c.Server.Port }, "must be different"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"min over max", func(c *Config) { c.Database.MinConns = 50 }, "min conns"},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, "cache size"},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache ttl"},
		{"zero rate", func(c *Config) { c.RateLimit.Requests = 0 }, "rate limit requests"},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, "rate limit window"},
		{"bad trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = []string{"10.0.0.0/99"} }, "AUTHGATE_TRUSTED_PROXIES"},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}, "endpoint is required"},
		{"otel bad ratio", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelSampleRatio = 2
		}, "sample ratio"},
		{"bad schedule", func(c *Config) { c.Reconcile.Schedule = "every tuesday" }, "invalid reconcile schedule"},
		{"zero batch", func(c *Config) { c.Reconcile.BatchSize = 0 }, "batch size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RateLimitDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig(t)
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Requests = 0

	assert.NoError(t, cfg.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("AUTHGATE_TEST_BOOL", "TRUE")
	t.Setenv("AUTHGATE_TEST_INT", "42")
	t.Setenv("AUTHGATE_TEST_INT64", "9000000000")
	t.Setenv("AUTHGATE_TEST_FLOAT", "0.5")
	t.Setenv("AUTHGATE_TEST_DURATION", "90s")

	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.False(t, getEnvBool("TEST_BOOL_UNSET", false))
	assert.Equal(t, 42, getEnvInt("TEST_INT", 0))
	assert.Equal(t, int64(9000000000), getEnvInt64("TEST_INT64", 0))
	assert.Equal(t, 0.5, getEnvFloat("TEST_FLOAT", 1))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", 0))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET", "fallback"))
	assert.Nil(t, getEnvList("TEST_UNSET"))
}
