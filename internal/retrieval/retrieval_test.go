package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/pkg/types"
)

type fixedEmbedder struct {
	err error
}

func (f fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2}
	}
	return out, nil
}

func newChromaServer(t *testing.T, lookups *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections/training", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(lookups, 1)
		w.Write([]byte(`{"id":"c-123","name":"training"}`))
	})
	mux.HandleFunc("POST /api/v1/collections/c-123/query", func(w http.ResponseWriter, r *http.Request) {
		var req chromaQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.NResults != 5 || len(req.QueryEmbeddings) != 1 || req.Include[0] != "documents" {
			http.Error(w, "unexpected query", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"ids":[["a","b","c"]],"documents":[["first passage",null,"second passage"]]}`))
	})
	return httptest.NewServer(mux)
}

func TestChromaRetriever(t *testing.T) {
	var lookups int32
	server := newChromaServer(t, &lookups)
	defer server.Close()

	r := NewChromaRetriever(server.URL+"/", "training", fixedEmbedder{})
	ctx := context.Background()

	docs, err := r.Retrieve(ctx, "workplace safety", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"first passage", "second passage"}, docs)

	_, err = r.Retrieve(ctx, "lifting", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&lookups), "collection id should be cached")

	docs, err = r.Retrieve(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestChromaRetriever_Failures(t *testing.T) {
	t.Run("UnknownCollection", func(t *testing.T) {
		var lookups int32
		server := newChromaServer(t, &lookups)
		defer server.Close()

		r := NewChromaRetriever(server.URL, "missing", fixedEmbedder{})
		_, err := r.Retrieve(context.Background(), "q", 5)
		assert.Error(t, err)
	})

	t.Run("EmbedderError", func(t *testing.T) {
		var lookups int32
		server := newChromaServer(t, &lookups)
		defer server.Close()

		boom := errors.New("boom")
		r := NewChromaRetriever(server.URL, "training", fixedEmbedder{err: boom})
		_, err := r.Retrieve(context.Background(), "q", 5)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Unreachable", func(t *testing.T) {
		r := NewChromaRetriever("http://127.0.0.1:1", "training", fixedEmbedder{})
		_, err := r.Retrieve(context.Background(), "q", 5)
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	registry := provider.NewRegistry()
	require.NoError(t, registry.RegisterLLM(provider.NewStubLLMProvider(types.LLMProviderConfig{Name: "stub"})))

	r, err := New(types.RetrievalConfig{Backend: "none"}, registry)
	require.NoError(t, err)
	assert.IsType(t, NoopRetriever{}, r)

	docs, err := r.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Nil(t, docs)

	r, err = New(types.RetrievalConfig{Backend: "chroma", Endpoint: "http://chroma:8000", Collection: "kb", Provider: "stub"}, registry)
	require.NoError(t, err)
	assert.IsType(t, &ChromaRetriever{}, r)

	_, err = New(types.RetrievalConfig{Backend: "chroma", Provider: "missing"}, registry)
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)

	_, err = New(types.RetrievalConfig{Backend: "elastic"}, registry)
	assert.Error(t, err)
}
