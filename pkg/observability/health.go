package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

type namedCheck struct {
	name     string
	fn       CheckFunc
	critical bool
}

// HealthChecker runs dependency checks for the readiness probe
type HealthChecker struct {
	mu      sync.RWMutex
	checks  []namedCheck
	timeout time.Duration
}

// NewHealthChecker creates a checker with a per-check timeout
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	return &HealthChecker{timeout: timeout}
}

// Register adds a check. A failing non-critical check reports "degraded" but
// keeps the service ready; the Redis config cache falls back to Postgres.
func (h *HealthChecker) Register(name string, critical bool, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, fn: fn, critical: critical})
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
}

// Check runs every registered check concurrently
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := append([]namedCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]error, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c namedCheck) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			results[i] = c.fn(cctx)
		}(i, c)
	}
	wg.Wait()

	status := HealthStatus{Status: "healthy", Timestamp: time.Now().UTC(), Checks: make(map[string]string, len(checks))}
	for i, c := range checks {
		if results[i] == nil {
			status.Checks[c.name] = "healthy"
			continue
		}
		status.Checks[c.name] = "unhealthy: " + results[i].Error()
		if c.critical {
			status.Status = "unhealthy"
		} else if status.Status == "healthy" {
			status.Status = "degraded"
		}
	}
	return status
}

// ReadyHandler answers 503 when a critical dependency is down
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}

// LiveHandler reports that the process is serving
func LiveHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}
