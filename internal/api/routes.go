package api

import (
	"net/http"

	"github.com/unalkalkan/la5asni/internal/health"
)

// RegisterRoutes mounts the API, health and metrics endpoints on mux.
// healthHandler may be nil.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, healthHandler *health.Handler) {
	chain := Chain(Recovery(h.logger), Logging(h.logger), Metrics(h.metrics))
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, chain(fn))
	}

	handle("GET /{$}", h.Root)
	handle("GET /api/v1/info", h.Info)
	handle("GET /api/v1/providers", h.Providers)

	// Existing clients post to the trailing-slash form; both are accepted.
	handleBoth := func(method, path string, fn http.HandlerFunc) {
		handle(method+" "+path, fn)
		handle(method+" "+path+"/{$}", fn)
	}
	handleBoth("POST", "/api/v1/analyze", h.Analyze)
	handleBoth("POST", "/api/v1/export", h.ExportBody)
	handleBoth("POST", "/api/v1/refine", h.Refine)
	handleBoth("POST", "/api/v1/plan", h.Plan)

	handle("GET /api/v1/analyses", h.ListAnalyses)
	handle("GET /api/v1/analyses/{id}", h.GetAnalysis)
	handle("GET /api/v1/analyses/{id}/export", h.ExportAnalysis)
	handle("GET /api/v1/analyses/{id}/bundle", h.ExportBundle)

	if healthHandler != nil {
		handle("GET /health", healthHandler.HealthHandler())
		handle("GET /health/live", healthHandler.LivenessHandler())
		handle("GET /health/ready", healthHandler.ReadinessHandler())
	}
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}
