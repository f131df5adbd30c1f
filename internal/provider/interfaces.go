package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProviderNotFound is returned when a provider name is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrInvalidOutput indicates the model response could not be parsed
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrEmbeddingsUnsupported is returned by providers without an embedding model
	ErrEmbeddingsUnsupported = errors.New("provider does not support embeddings")
)

// LLMProvider defines the interface for LLM providers
type LLMProvider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single chat turn and returns the model's reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Close cleans up resources
	Close() error
}

// Embedder is implemented by providers that can embed text
type Embedder interface {
	// Embed returns one vector per input, in input order
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// CompletionRequest contains the prompt for one completion
type CompletionRequest struct {
	System      string   // Optional system message
	Prompt      string   // User message
	Temperature *float64 // Overrides the configured temperature when set
	MaxTokens   int      // Overrides the configured max_tokens when > 0
}

// CompletionResponse contains the model reply and token usage
type CompletionResponse struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// CallObserver is notified after every provider call. operation is
// "complete" or "embed"; err is nil on success.
type CallObserver func(provider, operation string, elapsed time.Duration, err error)
