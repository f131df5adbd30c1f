// Package analysis turns extracted document text into a structured training
// analysis using an LLM provider, optionally grounded with retrieved context.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/unalkalkan/la5asni/internal/extraction"
	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/internal/retrieval"
	"github.com/unalkalkan/la5asni/internal/telemetry"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// ErrLLMFailure wraps errors returned by the provider call itself
var ErrLLMFailure = errors.New("llm call failed")

// retrievalQueryChars bounds the document prefix used as retrieval query
const retrievalQueryChars = 1000

// LLMSource resolves providers by name
type LLMSource interface {
	GetLLM(name string) (provider.LLMProvider, error)
}

// Store persists finished analyses
type Store interface {
	Save(ctx context.Context, analysis *types.Analysis) error
	SaveSource(ctx context.Context, id string, data []byte, format string) error
}

// Options wires a Service. Store, Retriever, Logger and Metrics are optional.
type Options struct {
	Providers  LLMSource
	Extractors extraction.Factory
	Retriever  retrieval.Retriever
	Store      Store
	Config     types.AnalysisConfig
	TopK       int
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
}

// Service runs document analysis and refinement
type Service struct {
	providers  LLMSource
	extractors extraction.Factory
	retriever  retrieval.Retriever
	store      Store
	cfg        types.AnalysisConfig
	topK       int
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// NewService creates an analysis service
func NewService(opts Options) *Service {
	s := &Service{
		providers:  opts.Providers,
		extractors: opts.Extractors,
		retriever:  opts.Retriever,
		store:      opts.Store,
		cfg:        opts.Config,
		topK:       opts.TopK,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
	if s.extractors == nil {
		s.extractors = extraction.NewFactory()
	}
	if s.retriever == nil {
		s.retriever = retrieval.NoopRetriever{}
	}
	if s.topK <= 0 {
		s.topK = retrieval.DefaultTopK
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// AnalyzeFile extracts an upload, analyzes it and persists the result and
// the source document when a Store is configured.
func (s *Service) AnalyzeFile(ctx context.Context, filename string, data []byte, providerName string) (*types.Analysis, error) {
	format := extraction.FormatFromFilename(filename)
	extractor, err := s.extractors.Get(format)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Extract(ctx, data)
	s.observeExtraction(format, err)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filename, err)
	}
	doc.Filename = filename

	analysis, err := s.Analyze(ctx, doc, providerName)
	if err != nil {
		return nil, err
	}

	created := s.now().UTC()
	analysis.Filename = filename
	analysis.CreatedAt = &created

	if s.store == nil {
		return analysis, nil
	}
	if err := s.store.Save(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	if err := s.store.SaveSource(ctx, analysis.ID, data, format); err != nil {
		s.logger.Warn("failed to save source document", "analysis_id", analysis.ID, "error", err)
	}
	return analysis, nil
}

// Analyze runs the LLM analysis for an extracted document. Page count and
// useful text ratio are taken from doc, never from the model.
func (s *Service) Analyze(ctx context.Context, doc *types.ExtractedDocument, providerName string) (*types.Analysis, error) {
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	llm, err := s.providers.GetLLM(providerName)
	if err != nil {
		return nil, err
	}

	text := truncateRunes(doc.Text, s.cfg.MaxDocumentChars)
	lang := DetectLanguage(text)
	logger := s.logger.With("filename", doc.Filename, "provider", providerName, "language", lang)

	passages, err := s.retriever.Retrieve(ctx, truncateRunes(text, retrievalQueryChars), s.topK)
	if err != nil {
		// Retrieval only enriches the prompt.
		logger.Warn("context retrieval failed, continuing without context", "error", err)
		if s.metrics != nil {
			s.metrics.RetrievalFailures.Inc()
		}
		passages = nil
	}

	resp, err := llm.Complete(ctx, provider.CompletionRequest{
		Prompt: BuildPrompt(text, lang, strings.Join(passages, "\n")),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMFailure, err)
	}

	out, err := provider.ExtractJSON(resp.Content, validateOutput)
	if err != nil {
		logger.Warn("unusable analysis output", "error", err)
		return nil, err
	}

	analysis := out.toAnalysis()
	analysis.Filename = doc.Filename
	analysis.Language = lang
	analysis.Provider = providerName
	analysis.NumPages = doc.NumPages
	analysis.UsefulTextRatio = doc.UsefulRatio

	logger.Info("document analyzed",
		"modules", len(analysis.TrainingModules),
		"key_points", analysis.NumKeyPoints,
		"total_minutes", analysis.TotalMinutes())
	return analysis, nil
}

func (s *Service) observeExtraction(format string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.DocumentsExtracted.WithLabelValues(format, outcome).Inc()
}

// modelOutput is the JSON shape requested from the model
type modelOutput struct {
	Summary         string        `json:"summary"`
	KeyPoints       []string      `json:"key_points"`
	TrainingModules []modelModule `json:"training_modules"`
}

type modelModule struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	EstimatedMinutes flexMinutes `json:"estimated_minutes"`
}

// flexMinutes accepts numbers and numeric strings, rounding fractions.
// Values outside the int32 range are rejected.
type flexMinutes int

func (m *flexMinutes) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("estimated_minutes %s is not a number", b)
	}
	f = math.Round(f)
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("estimated_minutes %s is out of range", b)
	}
	*m = flexMinutes(f)
	return nil
}

func validateOutput(out modelOutput) error {
	if strings.TrimSpace(out.Summary) == "" {
		return errors.New("summary is empty")
	}
	for i, m := range out.TrainingModules {
		if strings.TrimSpace(m.Title) == "" {
			return fmt.Errorf("training module %d has no title", i)
		}
		if m.EstimatedMinutes <= 0 {
			return fmt.Errorf("training module %q has non-positive estimated_minutes", m.Title)
		}
	}
	return nil
}

func (o modelOutput) toAnalysis() *types.Analysis {
	keyPoints := make([]string, 0, len(o.KeyPoints))
	for _, p := range o.KeyPoints {
		if p = strings.TrimSpace(p); p != "" {
			keyPoints = append(keyPoints, p)
		}
	}

	modules := make([]types.TrainingModule, 0, len(o.TrainingModules))
	for _, m := range o.TrainingModules {
		modules = append(modules, types.TrainingModule{
			Title:            strings.TrimSpace(m.Title),
			Description:      strings.TrimSpace(m.Description),
			EstimatedMinutes: int(m.EstimatedMinutes),
		})
	}

	return &types.Analysis{
		Summary:         strings.TrimSpace(o.Summary),
		KeyPoints:       keyPoints,
		TrainingModules: modules,
		NumKeyPoints:    len(keyPoints),
	}
}

// truncateRunes keeps at most n characters of s; n <= 0 means no limit
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
