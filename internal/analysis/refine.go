package analysis

import (
	"context"
	"fmt"

	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// RefineResult is the outcome of a refinement. On failure Analysis is the
// unchanged original, Refined is false and Err says why.
type RefineResult struct {
	Analysis *types.Analysis
	Refined  bool
	Err      error
}

// Refine asks the model to rewrite an analysis following instruction. It
// never fails outright: any error falls back to the original analysis.
func (s *Service) Refine(ctx context.Context, original *types.Analysis, instruction, providerName string) RefineResult {
	if providerName == "" {
		providerName = s.cfg.RefineProvider
	}
	logger := s.logger.With("analysis_id", original.ID, "provider", providerName)

	refined, err := s.refine(ctx, original, instruction, providerName)
	if err != nil {
		logger.Warn("refinement failed, returning original analysis", "error", err)
		if s.metrics != nil {
			s.metrics.RefinementFallbacks.Inc()
		}
		return RefineResult{Analysis: original, Err: err}
	}

	logger.Info("analysis refined", "modules", len(refined.TrainingModules))
	return RefineResult{Analysis: refined, Refined: true}
}

func (s *Service) refine(ctx context.Context, original *types.Analysis, instruction, providerName string) (*types.Analysis, error) {
	llm, err := s.providers.GetLLM(providerName)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildRefinePrompt(original, instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to build refine prompt: %w", err)
	}

	resp, err := llm.Complete(ctx, provider.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMFailure, err)
	}

	out, err := provider.ExtractJSON(resp.Content, validateOutput)
	if err != nil {
		return nil, err
	}

	refined := out.toAnalysis()
	refined.ID = original.ID
	refined.Filename = original.Filename
	refined.Language = original.Language
	refined.Provider = original.Provider
	refined.CreatedAt = original.CreatedAt
	refined.NumPages = original.NumPages
	refined.UsefulTextRatio = original.UsefulTextRatio
	return refined, nil
}
