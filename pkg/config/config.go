package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/authgate/pkg/httputil"
	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/storage"
)

// EnvPrefix prefixes every environment variable read by this package
const EnvPrefix = "AUTHGATE_"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Identity provider configuration
	Identity identity.CognitoConfig

	// Database configuration
	Database storage.DatabaseConfig

	// User record cache configuration
	Cache CacheConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Reconciler configuration
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodyBytes    int64

	// Health/metrics server (separate port for k8s liveness and readiness checks)
	HealthPort string
}

// CacheConfig holds the user record cache settings. Size 0 disables it.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// RateLimitConfig holds per-client rate limit settings.
// A non-empty RedisURL switches to the distributed limiter. Both limiters
// admit Requests+Burst requests per client and window.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Burst    int
	RedisURL string

	// TrustedProxies are CIDRs (or single IPs) of load balancers whose
	// X-Forwarded-For / X-Real-IP headers identify the client. Empty means
	// clients are keyed on the connection's remote address.
	TrustedProxies []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// ReconcileConfig holds the pending-record reconciler settings
type ReconcileConfig struct {
	Schedule  string
	BatchSize int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Identity:      loadIdentityConfig(),
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
		Reconcile:     loadReconcileConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		ReadTimeout:     getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSOrigins:     getEnvList("CORS_ORIGINS"),
		MaxBodyBytes:    getEnvInt64("MAX_BODY_BYTES", 64<<10),
		HealthPort:      getEnv("HEALTH_PORT", "9090"),
	}
}

// loadIdentityConfig loads the Cognito settings. The required ones have no defaults.
func loadIdentityConfig() identity.CognitoConfig {
	return identity.CognitoConfig{
		AccessKey:  getEnv("COGNITO_ACCESS_KEY", ""),
		SecretKey:  getEnv("COGNITO_SECRET_KEY", ""),
		Region:     getEnv("COGNITO_REGION", ""),
		ClientID:   getEnv("COGNITO_CLIENT_ID", ""),
		Domain:     getEnv("COGNITO_DOMAIN", ""),
		UserPoolID: getEnv("COGNITO_USER_POOL_ID", ""),
		Endpoint:   getEnv("COGNITO_ENDPOINT", ""),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() storage.DatabaseConfig {
	return storage.DatabaseConfig{
		Driver:      strings.ToLower(getEnv("DATABASE_DRIVER", storage.DriverPostgres)),
		URL:         getEnv("DATABASE_URL", ""),
		MaxConns:    getEnvInt("DATABASE_MAX_CONNS", 20),
		MinConns:    getEnvInt("DATABASE_MIN_CONNS", 2),
		Timeout:     getEnvDuration("DATABASE_TIMEOUT", 5*time.Second),
		MaxLifetime: getEnvDuration("DATABASE_MAX_LIFETIME", 30*time.Minute),
		MaxIdleTime: getEnvDuration("DATABASE_MAX_IDLE_TIME", 5*time.Minute),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Size: getEnvInt("USER_CACHE_SIZE", 1024),
		TTL:  getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
		Requests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		Burst:    getEnvInt("RATE_LIMIT_BURST", 5),
		RedisURL: getEnv("REDIS_URL", ""),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("OTEL_SERVICE_NAME", "authgate"),
		OTelServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}
}

func loadReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		Schedule:  getEnv("RECONCILE_SCHEDULE", "@every 10m"),
		BatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 100),
	}
}

// Validate checks if the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	// Server
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Server.HealthPort == "" {
		errs = append(errs, errors.New("health port is required"))
	}
	if c.Server.Port != "" && c.Server.Port == c.Server.HealthPort {
		errs = append(errs, errors.New("server port and health port must be different"))
	}

	// Identity provider
	required := []struct{ name, value string }{
		{"COGNITO_ACCESS_KEY", c.Identity.AccessKey},
		{"COGNITO_SECRET_KEY", c.Identity.SecretKey},
		{"COGNITO_REGION", c.Identity.Region},
		{"COGNITO_CLIENT_ID", c.Identity.ClientID},
		{"COGNITO_DOMAIN", c.Identity.Domain},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s%s is required", EnvPrefix, r.name))
		}
	}

	// Database
	switch c.Database.Driver {
	case storage.DriverPostgres, storage.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid database driver: %s (must be %s or %s)",
			c.Database.Driver, storage.DriverPostgres, storage.DriverSQLite))
	}
	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("%sDATABASE_URL is required", EnvPrefix))
	}
	if c.Database.MaxConns < 1 {
		errs = append(errs, errors.New("database max conns must be positive"))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("database min conns must be between 0 and max conns"))
	}

	// Cache
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("user cache size must not be negative"))
	}
	if c.Cache.Size > 0 && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("user cache ttl must be positive when the cache is enabled"))
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests < 1 {
			errs = append(errs, errors.New("rate limit requests must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate limit window must be positive"))
		}
		if c.RateLimit.Burst < 0 {
			errs = append(errs, errors.New("rate limit burst must not be negative"))
		}
		if _, err := httputil.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
			errs = append(errs, fmt.Errorf("%sTRUSTED_PROXIES: %w", EnvPrefix, err))
		}
	}

	// OpenTelemetry
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			errs = append(errs, errors.New("OpenTelemetry endpoint is required when OTel is enabled"))
		}
		if c.Observability.OTelServiceName == "" {
			errs = append(errs, errors.New("OpenTelemetry service name is required when OTel is enabled"))
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			errs = append(errs, errors.New("OpenTelemetry sample ratio must be between 0 and 1"))
		}
	}

	// Reconciler
	if _, err := cron.ParseStandard(c.Reconcile.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid reconcile schedule %q: %w", c.Reconcile.Schedule, err))
	}
	if c.Reconcile.BatchSize < 1 {
		errs = append(errs, errors.New("reconcile batch size must be positive"))
	}

	return errors.Join(errs...)
}

// Address returns host:port of the API server
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// HealthAddress returns host:port of the health/metrics server
func (s ServerConfig) HealthAddress() string {
	return s.Host + ":" + s.HealthPort
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable as a list
func getEnvList(key string) []string {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
