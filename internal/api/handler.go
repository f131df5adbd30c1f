// Package api exposes document analysis, refinement, export and study
// planning over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/unalkalkan/la5asni/internal/analysis"
	"github.com/unalkalkan/la5asni/internal/export"
	"github.com/unalkalkan/la5asni/internal/extraction"
	"github.com/unalkalkan/la5asni/internal/packaging"
	"github.com/unalkalkan/la5asni/internal/repository"
	"github.com/unalkalkan/la5asni/internal/telemetry"
	"github.com/unalkalkan/la5asni/pkg/types"
)

const (
	welcomeMessage = "Welcome to La5asni - Document Analyzer API"

	defaultMaxUploadMB = 20
	maxJSONBody        = 4 << 20
)

// ProviderLister lists registered LLM providers
type ProviderLister interface {
	ListLLM() []string
}

// Deps wires a Handler. Metrics and Logger are optional.
type Deps struct {
	Service    *analysis.Service
	Repository repository.Repository
	Renderer   *export.Renderer
	Packager   *packaging.Service
	Providers  ProviderLister
	Extractors extraction.Factory
	Config     *types.Config
	Version    string
	Metrics    *telemetry.Metrics
	Logger     *slog.Logger
}

// Handler serves the HTTP API
type Handler struct {
	service    *analysis.Service
	repo       repository.Repository
	renderer   *export.Renderer
	packager   *packaging.Service
	providers  ProviderLister
	extractors extraction.Factory
	cfg        *types.Config
	version    string
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

// NewHandler creates an API handler
func NewHandler(d Deps) *Handler {
	h := &Handler{
		service:    d.Service,
		repo:       d.Repository,
		renderer:   d.Renderer,
		packager:   d.Packager,
		providers:  d.Providers,
		extractors: d.Extractors,
		cfg:        d.Config,
		version:    d.Version,
		metrics:    d.Metrics,
		logger:     d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.extractors == nil {
		h.extractors = extraction.NewFactory()
	}
	if h.packager == nil && h.repo != nil && h.renderer != nil {
		h.packager = packaging.NewService(h.repo, h.renderer)
	}
	if h.cfg == nil {
		h.cfg = &types.Config{}
	}
	return h
}

// loggerFor returns the request scoped logger installed by Logging
func (h *Handler) loggerFor(r *http.Request) *slog.Logger {
	return telemetry.FromContext(r.Context())
}

func (h *Handler) maxUploadBytes() int64 {
	mb := h.cfg.Analysis.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return int64(mb) << 20
}

// Root answers GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

// Info answers GET /api/v1/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":             "la5asni",
		"version":          h.version,
		"storage_adapter":  h.cfg.Storage.Adapter,
		"retrieval":        h.cfg.Retrieval.Backend,
		"default_provider": h.cfg.Analysis.DefaultProvider,
		"refine_provider":  h.cfg.Analysis.RefineProvider,
		"formats":          h.extractors.Formats(),
		"max_upload_mb":    h.maxUploadBytes() >> 20,
		"unicode_reports":  h.renderer != nil && h.renderer.UnicodeCapable(),
	})
}

// Providers answers GET /api/v1/providers
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.providers != nil {
		names = h.providers.ListLLM()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"llm":     names,
		"default": h.cfg.Analysis.DefaultProvider,
	})
}
