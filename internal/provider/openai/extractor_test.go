package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"kontra/internal/config"
	"kontra/internal/domain"
)

func extractorFor(t *testing.T, url string, maxAttempts int) *Extractor {
	t.Helper()
	return NewExtractor(&config.ExtractionConfig{
		ProviderConfig: config.ProviderConfig{
			APIKey:       "test-key",
			Model:        "gpt-4o",
			Endpoint:     url,
			MaxAttempts:  maxAttempts,
			TimeoutSecs:  5,
			RateLimitRPS: 1000,
		},
		ReviewThreshold: 0.6,
	})
}

func chatBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	}
}

func TestExtractorParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatBody(
			`{"data": {"contract_value": 120000, "currency": "EUR", "payment_due_days": 30}, "confidence": 0.93}`,
		))
	}))
	defer srv.Close()

	out, err := extractorFor(t, srv.URL, 3).Extract(context.Background(), domain.KindPaymentTerms, "contract text")
	assert.NoError(t, err)
	assert.Equal(t, 0.93, out.Confidence)
	assert.Equal(t, "gpt-4o", out.Model)

	var payload map[string]interface{}
	assert.NoError(t, json.Unmarshal(out.Payload, &payload))
	assert.Equal(t, "EUR", payload["currency"])
}

func TestExtractorStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatBody(
			"```json\n{\"data\": {\"notice_period\": \"90 days\"}, \"confidence\": 0.7}\n```",
		))
	}))
	defer srv.Close()

	out, err := extractorFor(t, srv.URL, 3).Extract(context.Background(), domain.KindTerminationClauses, "contract text")
	assert.NoError(t, err)
	assert.Equal(t, 0.7, out.Confidence)
}

func TestExtractorClampsConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatBody(
			`{"data": {"notice_period": "30 days"}, "confidence": 3.5}`,
		))
	}))
	defer srv.Close()

	out, err := extractorFor(t, srv.URL, 3).Extract(context.Background(), domain.KindTerminationClauses, "contract text")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestExtractorRejectsPayloadMissingRequiredKeys(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(chatBody(
			`{"data": {"unexpected": true}, "confidence": 0.9}`,
		))
	}))
	defer srv.Close()

	// Malformed model output is retried like any transient fault and then
	// surfaced as provider unavailability, never cached or defaulted.
	_, err := extractorFor(t, srv.URL, 1).Extract(context.Background(), domain.KindPaymentTerms, "contract text")
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractorUnknownKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	_, err := extractorFor(t, srv.URL, 3).Extract(context.Background(), domain.ExtractionKind("palmistry"), "contract text")
	assert.True(t, errors.Is(err, domain.ErrUnknownExtractionKind))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
