// Package openai implements the embedding and extraction provider ports
// against the OpenAI HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"kontra/internal/config"
	"kontra/internal/domain"
	"kontra/internal/port"
	"kontra/internal/provider"
)

const embeddingsURL = "https://api.openai.com/v1/embeddings"

func init() {
	provider.RegisterEmbedder("openai", func(cfg *config.ProviderConfig) (port.EmbeddingProvider, error) {
		return NewEmbedder(cfg), nil
	})
	provider.RegisterExtractor("openai", func(cfg *config.ExtractionConfig) (port.ExtractionProvider, error) {
		return NewExtractor(cfg), nil
	})
}

// Embedder implements port.EmbeddingProvider using the OpenAI embeddings API.
type Embedder struct {
	apiKey      string
	model       string
	endpoint    string
	maxAttempts int
	client      *http.Client
	limiter     *rate.Limiter
}

// NewEmbedder creates an OpenAI-backed embedding provider.
func NewEmbedder(cfg *config.ProviderConfig) *Embedder {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = embeddingsURL
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	return &Embedder{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		maxAttempts: cfg.MaxAttempts,
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Model returns the configured embedding model identifier.
func (e *Embedder) Model() string {
	return e.model
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text, retrying transient failures
// with exponential backoff.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" || !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: embedding input must be non-empty UTF-8", domain.ErrInvalidInput)
	}

	var vector []float32
	err := provider.WithRetry(ctx, e.maxAttempts, func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		vec, err := e.callOnce(ctx, text)
		if err != nil {
			return err
		}
		vector = vec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *Embedder) callOnce(ctx context.Context, text string) ([]float32, error) {
	bodyBytes, err := json.Marshal(embeddingRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &provider.APIError{Provider: "openai", Status: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("openai", apiErr, retryAfter)
		}
		return nil, apiErr
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings API returned no vector")
	}
	return parsed.Data[0].Embedding, nil
}
