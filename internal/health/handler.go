// Package health serves liveness and readiness probes backed by named
// dependency checks.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) (Status, error)

// Response represents a health check response
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Handler manages health checks
type Handler struct {
	checks  map[string]CheckFunc
	mu      sync.RWMutex
	version string
	started time.Time
	now     func() time.Time
}

// NewHandler creates a new health check handler
func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]CheckFunc),
		version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

// Register adds a health check, replacing any check with the same name
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RunChecks executes all registered checks concurrently. The overall status
// is the worst individual status.
func (h *Handler) RunChecks(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := runCheck(ctx, check)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	overall := StatusHealthy
	for _, r := range results {
		overall = worst(overall, r.Status)
	}

	now := h.now()
	return Response{
		Status:    overall,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
		Checks:    results,
		Version:   h.version,
	}
}

func runCheck(ctx context.Context, check CheckFunc) (result CheckResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("check panicked: %v", rec)}
		}
		result.Duration = time.Since(start).String()
	}()

	status, err := check(ctx)
	result.Status = status
	if err != nil {
		result.Error = err.Error()
		if status == StatusHealthy || status == "" {
			result.Status = StatusUnhealthy
		}
	}
	return result
}

func worst(a, b Status) Status {
	rank := func(s Status) int {
		switch s {
		case StatusHealthy:
			return 0
		case StatusDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// LivenessHandler reports that the process is serving requests. It never
// runs dependency checks.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := h.now()
		writeJSON(w, http.StatusOK, Response{
			Status:    StatusHealthy,
			Timestamp: now.UTC(),
			Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
			Version:   h.version,
		})
	}
}

// ReadinessHandler runs all checks and answers 503 when any is unhealthy
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := h.RunChecks(ctx)
		status := http.StatusOK
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	}
}

// HealthHandler runs all checks and always answers 200 with the details
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		writeJSON(w, http.StatusOK, h.RunChecks(ctx))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Prober is satisfied by storage adapters
type Prober interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// StorageCheck reports unhealthy when the backend cannot answer a lookup.
// A missing probe key is healthy.
func StorageCheck(p Prober, key string) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := p.Exists(ctx, key); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// ProvidersCheck reports degraded when no LLM provider is registered and
// unhealthy when the default provider is missing.
func ProvidersCheck(list func() []string, defaultProvider string) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		names := list()
		if len(names) == 0 {
			return StatusDegraded, errors.New("no LLM providers registered")
		}
		if defaultProvider == "" {
			return StatusHealthy, nil
		}
		for _, n := range names {
			if n == defaultProvider {
				return StatusHealthy, nil
			}
		}
		return StatusUnhealthy, fmt.Errorf("default provider %q is not registered", defaultProvider)
	}
}
