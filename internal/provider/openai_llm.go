package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// OpenAILLMProvider implements LLMProvider and Embedder using OpenAI-compatible
// APIs. Groq, Gemini and OpenAI all expose this surface.
type OpenAILLMProvider struct {
	name        string
	config      types.LLMProviderConfig
	httpClient  *http.Client
	logger      *slog.Logger
	temperature *float64
	maxTokens   int
	jsonMode    bool
}

// NewOpenAILLMProvider creates a new OpenAI-compatible LLM provider
func NewOpenAILLMProvider(config types.LLMProviderConfig) (*OpenAILLMProvider, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI LLM provider")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI LLM provider")
	}

	logger := slog.Default().With("provider", config.Name)

	// Configure timeout from options or use default
	timeout := 60 * time.Second
	if v, ok := config.Options["timeout"]; ok {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			timeout = time.Duration(sec) * time.Second
		} else {
			logger.Warn("ignoring invalid timeout option", "value", v)
		}
	}

	p := &OpenAILLMProvider{
		name:   config.Name,
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}

	if v, ok := config.Options["temperature"]; ok {
		if temp, err := strconv.ParseFloat(v, 64); err == nil {
			p.temperature = &temp
		} else {
			logger.Warn("ignoring invalid temperature option", "value", v)
		}
	}
	if v, ok := config.Options["max_tokens"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.maxTokens = n
		} else {
			logger.Warn("ignoring invalid max_tokens option", "value", v)
		}
	}
	p.jsonMode, _ = strconv.ParseBool(config.Options["json_mode"])

	return p, nil
}

func (o *OpenAILLMProvider) Name() string {
	return o.name
}

func (o *OpenAILLMProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// OpenAI API structures
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete calls the chat completion endpoint
func (o *OpenAILLMProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	reqBody := chatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
	if req.Temperature != nil {
		reqBody.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		reqBody.MaxTokens = req.MaxTokens
	}
	if o.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if req.System != "" {
		reqBody.Messages = append(reqBody.Messages, message{Role: "system", Content: req.System})
	}
	reqBody.Messages = append(reqBody.Messages, message{Role: "user", Content: req.Prompt})

	o.logger.Debug("chat completion request",
		"model", o.config.Model,
		"prompt_length", len(req.Prompt),
		"prompt", truncateForLog(req.Prompt, 500))

	var apiResp chatCompletionResponse
	if err := o.post(ctx, "chat/completions", reqBody, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Choices) == 0 {
		o.logger.Warn("no choices in API response")
		return nil, fmt.Errorf("no choices in API response")
	}

	content := apiResp.Choices[0].Message.Content
	o.logger.Debug("chat completion response",
		"prompt_tokens", apiResp.Usage.PromptTokens,
		"completion_tokens", apiResp.Usage.CompletionTokens,
		"finish_reason", apiResp.Choices[0].FinishReason,
		"content", truncateForLog(content, 500))

	return &CompletionResponse{
		Content:          content,
		Model:            apiResp.Model,
		FinishReason:     apiResp.Choices[0].FinishReason,
		PromptTokens:     apiResp.Usage.PromptTokens,
		CompletionTokens: apiResp.Usage.CompletionTokens,
	}, nil
}

// Embed calls the embeddings endpoint with the configured embedding model
func (o *OpenAILLMProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if o.config.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: %s has no embedding_model", ErrEmbeddingsUnsupported, o.name)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	var apiResp embeddingResponse
	err := o.post(ctx, "embeddings", embeddingRequest{
		Model: o.config.EmbeddingModel,
		Input: texts,
	}, &apiResp)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(texts))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

// post sends a JSON request to path under the configured endpoint and
// decodes a 200 response into out.
func (o *OpenAILLMProvider) post(ctx context.Context, path string, in, out any) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := o.config.Endpoint
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	endpoint += path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	start := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		o.logger.Error("request failed", "url", endpoint, "duration", duration, "error", err)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	o.logger.Info("llm api call", "url", endpoint, "status", resp.StatusCode, "duration", duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			o.logger.Warn("api error", "message", errResp.Error.Message, "type", errResp.Error.Type, "code", errResp.Error.Code)
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncateForLog(string(body), 500))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > maxLen {
		// Back off to a rune boundary so Arabic text stays valid UTF-8.
		cut := maxLen
		for cut > 0 && s[cut]&0xC0 == 0x80 {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
