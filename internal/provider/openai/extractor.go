package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"kontra/internal/config"
	"kontra/internal/domain"
	"kontra/internal/port"
	"kontra/internal/provider"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// Extractor implements port.ExtractionProvider using the OpenAI Chat
// Completions API.
type Extractor struct {
	apiKey      string
	model       string
	endpoint    string
	maxAttempts int
	client      *http.Client
	limiter     *rate.Limiter
}

// NewExtractor creates an OpenAI-backed extraction provider.
func NewExtractor(cfg *config.ExtractionConfig) *Extractor {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = chatCompletionsURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}
	return &Extractor{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		maxAttempts: cfg.MaxAttempts,
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type extractionEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Confidence float64         `json:"confidence"`
}

// Extract runs the tagged prompt for kind over text and validates the
// provider's structured output against the kind's schema before returning.
func (x *Extractor) Extract(ctx context.Context, kind domain.ExtractionKind, text string) (*port.ExtractionOutput, error) {
	if text == "" || !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: extraction input must be non-empty UTF-8", domain.ErrInvalidInput)
	}
	spec, err := provider.SpecFor(kind)
	if err != nil {
		return nil, err
	}

	var out *port.ExtractionOutput
	err = provider.WithRetry(ctx, x.maxAttempts, func(ctx context.Context) error {
		if err := x.limiter.Wait(ctx); err != nil {
			return err
		}
		result, err := x.callOnce(ctx, spec, text)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (x *Extractor) callOnce(ctx context.Context, spec provider.PromptSpec, text string) (*port.ExtractionOutput, error) {
	reqBody := map[string]interface{}{
		"model":                 x.model,
		"max_completion_tokens": 8192,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": spec.Build() + "\n\nCONTRACT TEXT:\n" + text,
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat completions API: %w", err)
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

	return parseExtraction(respBody, spec, x.model)
}

func parseExtraction(respBody []byte, spec provider.PromptSpec, model string) (*port.ExtractionOutput, error) {
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat completions API returned no choices")
	}

	content := stripCodeFences(parsed.Choices[0].Message.Content)

	var envelope extractionEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, fmt.Errorf("model returned non-JSON content: %w", err)
	}
	if err := spec.ValidatePayload(envelope.Data); err != nil {
		return nil, err
	}

	confidence := envelope.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &port.ExtractionOutput{
		Payload:    envelope.Data,
		Confidence: confidence,
		Model:      model,
	}, nil
}

// stripCodeFences removes a ```json ... ``` wrapper some models emit despite
// the json_object response format.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
