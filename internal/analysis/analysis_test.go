package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/la5asni/internal/extraction"
	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/internal/repository"
	"github.com/unalkalkan/la5asni/internal/storage"
	"github.com/unalkalkan/la5asni/internal/telemetry"
	"github.com/unalkalkan/la5asni/pkg/types"
)

const englishText = "This handbook explains how new employees should prepare for their first week. " +
	"It covers workplace safety, the use of protective equipment and the reporting of incidents to a supervisor."

const arabicText = "يشرح هذا الدليل كيف يستعد الموظفون الجدد لأسبوعهم الأول في العمل. " +
	"ويغطي السلامة في مكان العمل واستخدام معدات الحماية والإبلاغ عن الحوادث إلى المشرف."

// scriptedLLM replies with a fixed content or error and records prompts.
type scriptedLLM struct {
	name    string
	content string
	err     error

	mu      sync.Mutex
	prompts []string
}

func (s *scriptedLLM) Name() string { return s.name }
func (s *scriptedLLM) Close() error { return nil }
func (s *scriptedLLM) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &provider.CompletionResponse{Content: s.content}, nil
}

func (s *scriptedLLM) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

type fixedRetriever struct {
	docs []string
	err  error
}

func (f fixedRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	return f.docs, f.err
}

const goodOutput = "Sure! Here is the analysis:\n```json\n" + `{
  "summary": "Onboarding essentials.",
  "key_points": ["Safety", " ", "Equipment", "Reporting"],
  "training_modules": [
    {"title": "Safety", "description": "Basics", "estimated_minutes": "45"},
    {"title": "Equipment", "estimated_minutes": 29.6}
  ],
  "num_pages": 99,
  "useful_text_ratio": 0.1,
  "num_key_points": 42
}` + "\n```"

func newRegistry(t *testing.T, llms ...provider.LLMProvider) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry()
	for _, l := range llms {
		require.NoError(t, reg.RegisterLLM(l))
	}
	return reg
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage(englishText))
	assert.Equal(t, "ar", DetectLanguage(arabicText))
	assert.Equal(t, UnknownLanguage, DetectLanguage("   "))
	assert.Equal(t, UnknownLanguage, DetectLanguage("12345 67890"))
}

func TestBuildPrompt(t *testing.T) {
	en := BuildPrompt("DOC", "en", "")
	assert.Contains(t, en, "Document:\nDOC")
	assert.NotContains(t, en, "additional context")
	assert.NotContains(t, en, "{{")

	withCtx := BuildPrompt("DOC", "fr", "passage one")
	assert.Contains(t, withCtx, "additional context from external sources:\npassage one")

	ar := BuildPrompt("نص", "ar", "سياق")
	assert.Contains(t, ar, "المستند:\nنص")
	assert.Contains(t, ar, "سياق")
	assert.NotContains(t, ar, "Document:")

	// Placeholders inside the document are left alone.
	assert.Contains(t, BuildPrompt("{{context}}", "en", "ctx"), "Document:\n{{context}}")
}

func TestBuildRefinePrompt(t *testing.T) {
	prompt, err := BuildRefinePrompt(&types.Analysis{
		ID:        "keep-out",
		Summary:   "S",
		KeyPoints: []string{"k"},
		TrainingModules: []types.TrainingModule{
			{Title: "M", EstimatedMinutes: 10},
		},
	}, "make it shorter")
	require.NoError(t, err)
	assert.Contains(t, prompt, "make it shorter")
	assert.Contains(t, prompt, `"estimated_minutes": 10`)
	assert.NotContains(t, prompt, "keep-out")
}

func TestAnalyze(t *testing.T) {
	llm := &scriptedLLM{name: "groq", content: goodOutput}
	metrics := telemetry.NewMetrics()
	svc := NewService(Options{
		Providers: newRegistry(t, llm),
		Retriever: fixedRetriever{docs: []string{"kb passage A", "kb passage B"}},
		Config:    types.AnalysisConfig{DefaultProvider: "groq"},
		Logger:    telemetry.NopLogger(),
		Metrics:   metrics,
	})

	doc := &types.ExtractedDocument{Filename: "onboarding.pdf", Text: englishText, NumPages: 3, UsefulRatio: 0.82}
	a, err := svc.Analyze(context.Background(), doc, "")
	require.NoError(t, err)

	assert.Equal(t, "Onboarding essentials.", a.Summary)
	assert.Equal(t, []string{"Safety", "Equipment", "Reporting"}, a.KeyPoints)
	assert.Equal(t, 3, a.NumKeyPoints)
	assert.Equal(t, 3, a.NumPages, "page count comes from the document")
	assert.Equal(t, 0.82, a.UsefulTextRatio, "ratio comes from the document")
	assert.Equal(t, "en", a.Language)
	assert.Equal(t, "groq", a.Provider)
	require.Len(t, a.TrainingModules, 2)
	assert.Equal(t, 45, a.TrainingModules[0].EstimatedMinutes)
	assert.Equal(t, 30, a.TrainingModules[1].EstimatedMinutes)
	assert.Equal(t, 75, a.TotalMinutes())

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "kb passage A\nkb passage B")
	assert.Contains(t, prompt, englishText)
}

func TestAnalyze_ArabicPrompt(t *testing.T) {
	llm := &scriptedLLM{name: "groq", content: goodOutput}
	svc := NewService(Options{Providers: newRegistry(t, llm), Config: types.AnalysisConfig{DefaultProvider: "groq"}, Logger: telemetry.NopLogger()})

	a, err := svc.Analyze(context.Background(), &types.ExtractedDocument{Text: arabicText, NumPages: 1}, "groq")
	require.NoError(t, err)
	assert.Equal(t, "ar", a.Language)
	assert.Contains(t, llm.lastPrompt(), "أنت خبير")
}

func TestAnalyze_RetrievalFailureIsNotFatal(t *testing.T) {
	llm := &scriptedLLM{name: "groq", content: goodOutput}
	metrics := telemetry.NewMetrics()
	svc := NewService(Options{
		Providers: newRegistry(t, llm),
		Retriever: fixedRetriever{err: errors.New("chroma down")},
		Config:    types.AnalysisConfig{DefaultProvider: "groq"},
		Logger:    telemetry.NopLogger(),
		Metrics:   metrics,
	})

	_, err := svc.Analyze(context.Background(), &types.ExtractedDocument{Text: englishText}, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RetrievalFailures))
	assert.NotContains(t, llm.lastPrompt(), "additional context")
}

func TestAnalyze_Truncation(t *testing.T) {
	llm := &scriptedLLM{name: "groq", content: goodOutput}
	svc := NewService(Options{
		Providers: newRegistry(t, llm),
		Config:    types.AnalysisConfig{DefaultProvider: "groq", MaxDocumentChars: 12},
		Logger:    telemetry.NopLogger(),
	})

	_, err := svc.Analyze(context.Background(), &types.ExtractedDocument{Text: "ابدأ هنا ثم تابع القراءة حتى النهاية"}, "")
	require.NoError(t, err)
	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "ابدأ هنا ثم ")
	assert.NotContains(t, prompt, "النهاية")
}

func TestAnalyze_Errors(t *testing.T) {
	ctx := context.Background()
	doc := &types.ExtractedDocument{Text: englishText}

	t.Run("UnknownProvider", func(t *testing.T) {
		svc := NewService(Options{Providers: newRegistry(t), Config: types.AnalysisConfig{DefaultProvider: "groq"}, Logger: telemetry.NopLogger()})
		_, err := svc.Analyze(ctx, doc, "gemini")
		assert.ErrorIs(t, err, provider.ErrProviderNotFound)
	})

	t.Run("ProviderError", func(t *testing.T) {
		llm := &scriptedLLM{name: "groq", err: context.DeadlineExceeded}
		svc := NewService(Options{Providers: newRegistry(t, llm), Logger: telemetry.NopLogger()})
		_, err := svc.Analyze(ctx, doc, "groq")
		assert.ErrorIs(t, err, ErrLLMFailure)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	outputs := map[string]string{
		"NotJSON":        "I could not analyze this document.",
		"EmptySummary":   `{"summary":"  ","training_modules":[]}`,
		"ZeroMinutes":    `{"summary":"s","training_modules":[{"title":"t","estimated_minutes":0}]}`,
		"BlankTitle":     `{"summary":"s","training_modules":[{"title":"","estimated_minutes":5}]}`,
		"MinutesNotANum": `{"summary":"s","training_modules":[{"title":"t","estimated_minutes":"soon"}]}`,
		"MinutesHuge":    `{"summary":"s","training_modules":[{"title":"t","estimated_minutes":1e30}]}`,
		"MinutesNaN":     `{"summary":"s","training_modules":[{"title":"t","estimated_minutes":"NaN"}]}`,
		"MinutesInf":     `{"summary":"s","training_modules":[{"title":"t","estimated_minutes":"-Inf"}]}`,
	}
	for name, content := range outputs {
		t.Run(name, func(t *testing.T) {
			llm := &scriptedLLM{name: "groq", content: content}
			svc := NewService(Options{Providers: newRegistry(t, llm), Logger: telemetry.NopLogger()})
			_, err := svc.Analyze(ctx, doc, "groq")
			assert.ErrorIs(t, err, provider.ErrInvalidOutput)
		})
	}
}

func TestAnalyzeFile(t *testing.T) {
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	repo := repository.NewRepository(adapter)
	metrics := telemetry.NewMetrics()

	svc := NewService(Options{
		Providers:  newRegistry(t, provider.NewStubLLMProvider(types.LLMProviderConfig{Name: "stub"})),
		Extractors: extraction.NewFactory(),
		Store:      repo,
		Config:     types.AnalysisConfig{DefaultProvider: "stub"},
		Logger:     telemetry.NopLogger(),
		Metrics:    metrics,
	})
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ctx := context.Background()
	a, err := svc.AnalyzeFile(ctx, "notes.txt", []byte(englishText+"\n\n"), "")
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "notes.txt", a.Filename)
	assert.Equal(t, 1, a.NumPages)
	assert.Equal(t, 0.33, a.UsefulTextRatio)
	require.NotNil(t, a.CreatedAt)
	assert.True(t, fixed.Equal(*a.CreatedAt))

	stored, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Summary, stored.Summary)

	src, format, err := repo.GetSource(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "txt", format)
	assert.True(t, strings.HasPrefix(string(src), "This handbook"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DocumentsExtracted.WithLabelValues("txt", "success")))

	_, err = svc.AnalyzeFile(ctx, "slides.pptx", []byte("x"), "")
	assert.ErrorIs(t, err, extraction.ErrUnsupportedFormat)

	_, err = svc.AnalyzeFile(ctx, "empty.txt", []byte("  \n"), "")
	assert.ErrorIs(t, err, extraction.ErrEmptyDocument)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DocumentsExtracted.WithLabelValues("txt", "error")))
}

func TestRefine(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	original := &types.Analysis{
		ID:              "a-1",
		Filename:        "safety.pdf",
		Language:        "en",
		Provider:        "groq",
		CreatedAt:       &created,
		Summary:         "Long summary",
		KeyPoints:       []string{"a", "b"},
		TrainingModules: []types.TrainingModule{{Title: "M", EstimatedMinutes: 60}},
		NumPages:        7,
		UsefulTextRatio: 0.9,
		NumKeyPoints:    2,
	}

	t.Run("Success", func(t *testing.T) {
		llm := &scriptedLLM{name: "gemini", content: `{"summary":"Short","key_points":["a"],"training_modules":[{"title":"M1","estimated_minutes":20},{"title":"M2","estimated_minutes":20}],"num_pages":1}`}
		svc := NewService(Options{
			Providers: newRegistry(t, llm),
			Config:    types.AnalysisConfig{RefineProvider: "gemini"},
			Logger:    telemetry.NopLogger(),
		})

		res := svc.Refine(context.Background(), original, "split the module", "")
		require.NoError(t, res.Err)
		assert.True(t, res.Refined)
		assert.Equal(t, "Short", res.Analysis.Summary)
		assert.Equal(t, 1, res.Analysis.NumKeyPoints)
		assert.Equal(t, 7, res.Analysis.NumPages)
		assert.Equal(t, 0.9, res.Analysis.UsefulTextRatio)
		assert.Equal(t, "a-1", res.Analysis.ID)
		assert.Equal(t, &created, res.Analysis.CreatedAt)
		assert.Len(t, res.Analysis.TrainingModules, 2)
		assert.Contains(t, llm.lastPrompt(), "split the module")
		assert.Equal(t, "Long summary", original.Summary, "original must not be mutated")
	})

	failures := map[string]*scriptedLLM{
		"ProviderError": {name: "gemini", err: errors.New("quota exceeded")},
		"BadOutput":     {name: "gemini", content: "no json here"},
	}
	for name, llm := range failures {
		t.Run(name, func(t *testing.T) {
			metrics := telemetry.NewMetrics()
			svc := NewService(Options{
				Providers: newRegistry(t, llm),
				Config:    types.AnalysisConfig{RefineProvider: "gemini"},
				Logger:    telemetry.NopLogger(),
				Metrics:   metrics,
			})

			res := svc.Refine(context.Background(), original, "shorter", "")
			assert.Error(t, res.Err)
			assert.False(t, res.Refined)
			assert.Same(t, original, res.Analysis)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RefinementFallbacks))
		})
	}

	t.Run("UnknownProvider", func(t *testing.T) {
		svc := NewService(Options{Providers: newRegistry(t), Logger: telemetry.NopLogger()})
		res := svc.Refine(context.Background(), original, "shorter", "nope")
		assert.ErrorIs(t, res.Err, provider.ErrProviderNotFound)
		assert.Same(t, original, res.Analysis)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 0))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "مر", truncateRunes("مرحبا", 2))
}
