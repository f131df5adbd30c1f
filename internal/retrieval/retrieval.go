// Package retrieval looks up knowledge-base passages used to ground
// document analysis prompts.
package retrieval

import (
	"context"
	"fmt"

	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// DefaultTopK is the number of passages fetched when k <= 0
const DefaultTopK = 5

// Retriever returns up to k passages related to query
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// NoopRetriever never returns context
type NoopRetriever struct{}

func (NoopRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	return nil, nil
}

// New builds the retriever selected by cfg.Backend. The chroma backend
// embeds queries with the named provider from registry.
func New(cfg types.RetrievalConfig, registry *provider.Registry) (Retriever, error) {
	switch cfg.Backend {
	case "", "none":
		return NoopRetriever{}, nil
	case "chroma":
		embedder, err := registry.GetEmbedder(cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("retrieval embedder: %w", err)
		}
		return NewChromaRetriever(cfg.Endpoint, cfg.Collection, embedder), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend: %s", cfg.Backend)
	}
}
