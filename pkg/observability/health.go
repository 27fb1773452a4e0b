package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker reports liveness and readiness of the gateway.
// The user store is required. Checks added with AddCheck (the rate limiter's
// Redis) only degrade the service when they fail.
type HealthChecker struct {
	db      *sql.DB
	version string
	timeout time.Duration

	mu     sync.Mutex
	checks []dependencyCheck
}

// NewHealthChecker creates a new health checker. db may be nil.
func NewHealthChecker(db *sql.DB, version string) *HealthChecker {
	return &HealthChecker{
		db:      db,
		version: version,
		timeout: 5 * time.Second,
	}
}

// AddCheck registers an optional dependency check under name
func (h *HealthChecker) AddCheck(name string, check func(context.Context) error) {
	if check == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, dependencyCheck{name: name, check: func(ctx context.Context) (string, error) {
		return "", check(ctx)
	}})
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Liveness always answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
	})
}

// Readiness checks dependencies and answers 503 when unhealthy
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := h.Check(ctx)

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

// dependencyCheck checks one dependency. A failing required check makes the gateway
// unhealthy; any other failure only degrades it.
type dependencyCheck struct {
	name     string
	required bool
	check    func(context.Context) (string, error)
}

func (h *HealthChecker) dependencyChecks() []dependencyCheck {
	var deps []dependencyCheck
	if h.db != nil {
		deps = append(deps, dependencyCheck{name: "database", required: true, check: h.checkDatabase})
	}
	h.mu.Lock()
	deps = append(deps, h.checks...)
	h.mu.Unlock()
	return deps
}

// Check runs every dependency check
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	for _, p := range h.dependencyChecks() {
		start := time.Now()
		dep := DependencyStatus{Status: StatusHealthy, Timestamp: start}
		warning, err := p.check(ctx)
		dep.LatencyMS = time.Since(start).Milliseconds()

		switch {
		case err != nil:
			dep.Status = StatusUnhealthy
			dep.Message = err.Error()
		case warning != "":
			dep.Status = StatusDegraded
			dep.Message = warning
		}
		status.Dependencies[p.name] = dep

		if dep.Status == StatusUnhealthy && p.required {
			status.Status = StatusUnhealthy
		} else if dep.Status != StatusHealthy && status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

// checkDatabase round-trips a query and warns when the pool is saturated
func (h *HealthChecker) checkDatabase(ctx context.Context) (string, error) {
	var one int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return "", err
	}
	if stats := h.db.Stats(); stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		return "connection pool exhausted", nil
	}
	return "", nil
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// RegisterHealthRoutes mounts /health, /health/live and /health/ready
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
