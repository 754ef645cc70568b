// Package healthcheck aggregates dependency probes into one report served
// on the health endpoint and read back by `atlasctl health`.
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// worse reports whether s is a worse status than other
func (s Status) worse(other Status) bool {
	return rank(s) > rank(other)
}

func rank(s Status) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

// Check is the result of one probe
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"-"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response is the aggregated report. Checks keep registration order.
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"-"`
}

// Checker probes one dependency
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckFunc adapts a plain function to Checker
type CheckFunc func(ctx context.Context) Check

func (f CheckFunc) Check(ctx context.Context) Check { return f(ctx) }

type namedChecker struct {
	name    string
	checker Checker
}

// HealthCheck runs registered checkers concurrently and caches the report
// for a short TTL so probes do not hammer the database.
type HealthCheck struct {
	version  string
	logger   *zap.Logger
	mu       sync.RWMutex
	checkers []namedChecker
	cache    *Response
	cacheTTL time.Duration
	timeout  time.Duration
}

// New creates a health check reporting version
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger.Named("health"),
		cacheTTL: 5 * time.Second,
		timeout:  5 * time.Second,
	}
}

// Register adds a checker; registering a name twice replaces the first
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cache = nil
	for i := range h.checkers {
		if h.checkers[i].name == name {
			h.checkers[i].checker = checker
			return
		}
	}
	h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
}

// SetCacheTTL sets how long a report is reused; zero disables caching
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
	h.cache = nil
}

// SetTimeout bounds a full round of checks
func (h *HealthCheck) SetTimeout(timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = timeout
}

// Handler serves the full report; 503 when any check is unhealthy
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
			for _, c := range response.Checks {
				if c.Status != StatusHealthy {
					h.logger.Warn("Dependency not healthy",
						zap.String("check", c.Name),
						zap.String("status", string(c.Status)),
						zap.String("message", c.Message),
					)
				}
			}
		}
		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler answers as long as the process serves requests
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"version":   h.version,
			"timestamp": time.Now().UTC(),
		})
	}
}

// Check runs every checker, or returns the cached report while fresh
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := append([]namedChecker(nil), h.checkers...)
	timeout := h.timeout
	h.mu.RUnlock()

	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i, nc := range checkers {
		wg.Add(1)
		go func(i int, nc namedChecker) {
			defer wg.Done()
			check := nc.checker.Check(checkCtx)
			check.Name = nc.name
			results[i] = check
		}(i, nc)
	}
	wg.Wait()

	response := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    results,
	}
	for _, c := range results {
		if c.Status.worse(response.Status) {
			response.Status = c.Status
		}
	}
	response.TotalDuration = time.Since(start)

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// DatabaseChecker pings the relational store and reports pool usage
type DatabaseChecker struct {
	db     *sql.DB
	driver string
}

// NewDatabaseChecker creates a checker for a database/sql pool opened with
// driver ("sqlite" or "postgres")
func NewDatabaseChecker(db *sql.DB, driver string) *DatabaseChecker {
	return &DatabaseChecker{db: db, driver: driver}
}

// Check pings the pool. A pool above 90% utilisation is degraded; SQLite
// runs on a single connection, so busy is normal there.
func (d *DatabaseChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{LastChecked: start}

	err := d.db.PingContext(ctx)
	check.Duration = time.Since(start)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	stats := d.db.Stats()
	check.Status = StatusHealthy
	check.Metadata = map[string]interface{}{
		"driver":           d.driver,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	if stats.MaxOpenConnections > 1 && stats.InUse*10 > stats.MaxOpenConnections*9 {
		check.Status = StatusDegraded
		check.Message = "connection pool nearly exhausted"
	}
	return check
}

// NewRedisChecker pings the redis session store
func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckFunc(func(ctx context.Context) Check {
		start := time.Now()
		err := client.Ping(ctx).Err()
		check := Check{LastChecked: start, Duration: time.Since(start), Status: StatusHealthy}
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	})
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MarshalJSON writes the duration as fractional milliseconds
func (c Check) MarshalJSON() ([]byte, error) {
	type plain Check
	return json.Marshal(struct {
		plain
		DurationMS float64 `json:"duration_ms"`
	}{plain(c), millis(c.Duration)})
}

// MarshalJSON writes the total duration as fractional milliseconds
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	return json.Marshal(struct {
		plain
		TotalDurationMS float64 `json:"total_duration_ms"`
	}{plain(r), millis(r.TotalDuration)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
