// Package config provides application configuration management from environment variables.
//
// # Overview
//
// Every setting is read from an AUTHGATE_ prefixed environment variable.
// Identity provider credentials and the database URL have no defaults;
// everything else does. Validate reports all problems at once.
//
// # Configuration Structure
//
// Identity provider (required):
//
//	AUTHGATE_COGNITO_ACCESS_KEY, AUTHGATE_COGNITO_SECRET_KEY
//	AUTHGATE_COGNITO_REGION="us-east-1"
//	AUTHGATE_COGNITO_CLIENT_ID, AUTHGATE_COGNITO_DOMAIN
//	AUTHGATE_COGNITO_USER_POOL_ID   # optional, enables the reconciler
//	AUTHGATE_COGNITO_ENDPOINT       # optional, local emulators
//
// Server settings:
//
//	AUTHGATE_HOST="0.0.0.0"
//	AUTHGATE_PORT="8080"
//	AUTHGATE_HEALTH_PORT="9090"
//	AUTHGATE_CORS_ORIGINS="https://app.example.com,https://admin.example.com"
//
// Database and cache:
//
//	AUTHGATE_DATABASE_DRIVER="postgres"  # postgres, sqlite3
//	AUTHGATE_DATABASE_URL="postgres://localhost/authgate?sslmode=disable"
//	AUTHGATE_USER_CACHE_SIZE="1024"      # 0 disables
//	AUTHGATE_USER_CACHE_TTL="5m"
//
// Rate limiting:
//
//	AUTHGATE_RATE_LIMIT_REQUESTS="30"
//	AUTHGATE_RATE_LIMIT_WINDOW="1m"
//	AUTHGATE_RATE_LIMIT_BURST="5"
//	AUTHGATE_REDIS_URL="redis://localhost:6379/0"  # shared limiter across instances
//	AUTHGATE_TRUSTED_PROXIES="10.0.0.0/8"           # load balancers allowed to set X-Forwarded-For
//
// Observability settings:
//
//	AUTHGATE_LOG_LEVEL="info"  # debug, info, warn, error
//	AUTHGATE_METRICS_ENABLED="true"
//	AUTHGATE_OTEL_ENABLED="true"
//	AUTHGATE_OTEL_ENDPOINT="otel-collector:4317"
//
// Reconciler:
//
//	AUTHGATE_RECONCILE_SCHEDULE="@every 10m"
//	AUTHGATE_RECONCILE_BATCH_SIZE="100"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server: %s\n", cfg.Server.Address())
package config
