package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "la5asni"

// Metrics holds every collector the service exports. It owns its registry
// so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	LLMCalls            *prometheus.CounterVec
	LLMDuration         *prometheus.HistogramVec
	DocumentsExtracted  *prometheus.CounterVec
	PlansBuilt          *prometheus.CounterVec
	PlanDays            prometheus.Histogram
	PlanRejections      *prometheus.CounterVec
	RefinementFallbacks prometheus.Counter
	RetrievalFailures   prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM provider calls, by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "LLM provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider", "operation"}),
		DocumentsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Uploaded documents extracted, by format and outcome.",
		}, []string{"format", "outcome"}),
		PlansBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_built_total",
			Help:      "Training plans built, by mode.",
		}, []string{"mode"}),
		PlanDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_days",
			Help:      "Number of days in generated plans.",
			Buckets:   []float64{1, 2, 3, 5, 7, 10, 14, 21, 30},
		}),
		PlanRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_rejections_total",
			Help:      "Plan requests rejected by validation, by code.",
		}, []string{"code"}),
		RefinementFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinement_fallbacks_total",
			Help:      "Refinements that failed and returned the original analysis.",
		}),
		RetrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_failures_total",
			Help:      "Context retrievals that failed; analysis continued without context.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.LLMCalls,
		m.LLMDuration,
		m.DocumentsExtracted,
		m.PlansBuilt,
		m.PlanDays,
		m.PlanRejections,
		m.RefinementFallbacks,
		m.RetrievalFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveLLMCall records one provider call. It matches provider.CallObserver.
func (m *Metrics) ObserveLLMCall(providerName, operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.LLMCalls.WithLabelValues(providerName, operation, outcome).Inc()
	m.LLMDuration.WithLabelValues(providerName, operation).Observe(elapsed.Seconds())
}
