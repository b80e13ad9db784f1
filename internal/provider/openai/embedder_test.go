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

func embedderFor(t *testing.T, url string, maxAttempts int) *Embedder {
	t.Helper()
	return NewEmbedder(&config.ProviderConfig{
		APIKey:       "test-key",
		Model:        "text-embedding-3-small",
		Endpoint:     url,
		MaxAttempts:  maxAttempts,
		TimeoutSecs:  5,
		RateLimitRPS: 1000,
	})
}

func TestEmbedderSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"liability cap clause"}, req.Input)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	vec, err := embedderFor(t, srv.URL, 3).Embed(context.Background(), "liability cap clause")
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestEmbedderRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	vec, err := embedderFor(t, srv.URL, 3).Embed(context.Background(), "text")
	assert.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedderExhaustedRetriesSurfaceProviderUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := embedderFor(t, srv.URL, 2).Embed(context.Background(), "text")
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedderUnauthorizedIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := embedderFor(t, srv.URL, 3).Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedderRejectsInvalidInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	e := embedderFor(t, srv.URL, 3)

	_, err := e.Embed(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = e.Embed(context.Background(), string([]byte{0xff, 0xfe}))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
