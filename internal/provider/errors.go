package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"kontra/internal/domain"
)

// APIError indicates a non-2xx response from a provider endpoint.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 5s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 5
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// retryable reports whether an error is worth another attempt: rate limits,
// 5xx responses, and transport-level failures. 4xx responses (other than 429)
// are permanent.
func retryable(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	// Transport errors (connection refused, reset, timeout inside the client).
	return true
}

const backoffBase = 500 * time.Millisecond

// WithRetry runs op up to maxAttempts times with exponential backoff between
// attempts, honoring Retry-After on rate limits. Once attempts exhaust the
// last error is surfaced as domain.ErrProviderUnavailable; a default value is
// never silently substituted.
func WithRetry(ctx context.Context, maxAttempts int, op func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	delay := backoffBase
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		wait := delay
		var rle *RateLimitError
		if errors.As(lastErr, &rle) && rle.RetryAfter > wait {
			wait = rle.RetryAfter
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, ctx.Err())
		case <-time.After(wait):
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, lastErr)
}
