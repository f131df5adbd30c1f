package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/unalkalkan/la5asni/internal/provider"
)

// ChromaRetriever queries a Chroma server over its REST API
type ChromaRetriever struct {
	endpoint   string
	collection string
	embedder   provider.Embedder
	httpClient *http.Client

	mu           sync.Mutex
	collectionID string
}

// NewChromaRetriever creates a retriever for the named collection
func NewChromaRetriever(endpoint, collection string, embedder provider.Embedder) *ChromaRetriever {
	return &ChromaRetriever{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float64 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string  `json:"ids"`
	Documents [][]*string `json:"documents"`
}

// Retrieve embeds query and returns the documents of the k nearest entries
func (c *ChromaRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	id, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	var resp chromaQueryResponse
	err = c.do(ctx, http.MethodPost, "/api/v1/collections/"+url.PathEscape(id)+"/query", chromaQueryRequest{
		QueryEmbeddings: vectors,
		NResults:        k,
		Include:         []string{"documents"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Documents) == 0 {
		return nil, nil
	}
	docs := make([]string, 0, len(resp.Documents[0]))
	for _, d := range resp.Documents[0] {
		if d != nil && *d != "" {
			docs = append(docs, *d)
		}
	}
	return docs, nil
}

// resolveCollection looks the collection id up once and caches it
func (c *ChromaRetriever) resolveCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}

	var col chromaCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections/"+url.PathEscape(c.collection), nil, &col); err != nil {
		return "", fmt.Errorf("failed to resolve collection %s: %w", c.collection, err)
	}
	if col.ID == "" {
		return "", fmt.Errorf("collection %s has no id", c.collection)
	}
	c.collectionID = col.ID
	return col.ID, nil
}

func (c *ChromaRetriever) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read chroma response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse chroma response: %w", err)
	}
	return nil
}
