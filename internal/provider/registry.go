package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// Registry manages provider instances
type Registry struct {
	llmProviders map[string]LLMProvider
	observer     CallObserver
	mu           sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		llmProviders: make(map[string]LLMProvider),
	}
}

// SetObserver installs a hook that sees every call made through providers
// returned by GetLLM and GetEmbedder.
func (r *Registry) SetObserver(obs CallObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = obs
}

// RegisterLLM registers an LLM provider
func (r *Registry) RegisterLLM(provider LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.llmProviders[name]; exists {
		return fmt.Errorf("LLM provider already registered: %s", name)
	}

	r.llmProviders[name] = provider
	return nil
}

// GetLLM retrieves an LLM provider by name
func (r *Registry) GetLLM(name string) (LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.llmProviders[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	if r.observer == nil {
		return provider, nil
	}
	return &observedLLM{LLMProvider: provider, observe: r.observer}, nil
}

// GetEmbedder retrieves a provider that can embed text
func (r *Registry) GetEmbedder(name string) (Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.llmProviders[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	embedder, ok := provider.(Embedder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmbeddingsUnsupported, name)
	}
	if r.observer == nil {
		return embedder, nil
	}
	return &observedEmbedder{name: name, inner: embedder, observe: r.observer}, nil
}

// ListLLM returns all registered LLM provider names, sorted
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.llmProviders))
	for name := range r.llmProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered providers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, provider := range r.llmProviders {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close LLM provider %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// InitializeProviders creates provider instances from configuration
func (r *Registry) InitializeProviders(cfg types.ProvidersConfig) error {
	for _, llmCfg := range cfg.LLM {
		if !llmCfg.Enabled {
			continue
		}
		var provider LLMProvider
		if llmCfg.Endpoint != "" && llmCfg.Model != "" {
			p, err := NewOpenAILLMProvider(llmCfg)
			if err != nil {
				return fmt.Errorf("failed to create OpenAI LLM provider %s: %w", llmCfg.Name, err)
			}
			provider = p
		} else {
			provider = NewStubLLMProvider(llmCfg)
		}
		if err := r.RegisterLLM(provider); err != nil {
			return err
		}
	}
	return nil
}

type observedLLM struct {
	LLMProvider
	observe CallObserver
}

func (o *observedLLM) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := o.LLMProvider.Complete(ctx, req)
	o.observe(o.Name(), "complete", time.Since(start), err)
	return resp, err
}

type observedEmbedder struct {
	name    string
	inner   Embedder
	observe CallObserver
}

func (o *observedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()
	vectors, err := o.inner.Embed(ctx, texts)
	o.observe(o.name, "embed", time.Since(start), err)
	return vectors, err
}
