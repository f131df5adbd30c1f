package provider

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// stubDimensions is the vector size returned by StubLLMProvider.Embed
const stubDimensions = 8

// StubLLMProvider answers every completion with a fixed analysis. It is
// registered for providers without endpoint or model, and used in tests.
type StubLLMProvider struct {
	name   string
	config types.LLMProviderConfig
}

// NewStubLLMProvider creates a new stub LLM provider
func NewStubLLMProvider(config types.LLMProviderConfig) *StubLLMProvider {
	return &StubLLMProvider{
		name:   config.Name,
		config: config,
	}
}

func (s *StubLLMProvider) Name() string {
	return s.name
}

// StubAnalysis is the analysis every stub completion returns
func StubAnalysis() types.Analysis {
	return types.Analysis{
		Summary: "This document introduces the core topics of the material.",
		KeyPoints: []string{
			"Understand the main concepts",
			"Apply them in practice",
		},
		TrainingModules: []types.TrainingModule{
			{Title: "Introduction", Description: "Overview of the material", EstimatedMinutes: 30},
			{Title: "Core concepts", Description: "Main ideas in depth", EstimatedMinutes: 90},
			{Title: "Practice", Description: "Exercises", EstimatedMinutes: 60},
		},
	}
}

func (s *StubLLMProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := json.Marshal(StubAnalysis())
	if err != nil {
		return nil, err
	}
	return &CompletionResponse{
		Content:      string(content),
		Model:        "stub",
		FinishReason: "stop",
	}, nil
}

// Embed returns small deterministic vectors derived from each word's hash
func (s *StubLLMProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, stubDimensions)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			v[h.Sum32()%stubDimensions]++
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (s *StubLLMProvider) Close() error {
	return nil
}
