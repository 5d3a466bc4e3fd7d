package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/quocvuong92/helios/internal/config"
	"github.com/quocvuong92/helios/internal/logging"
)

// Retry configuration
const (
	MaxAPIRetryAttempts = 3
	APIInitialBackoff   = 500 * time.Millisecond
	APIMaxBackoff       = 5 * time.Second
	BackoffMultiplier   = 2.0
)

// RetryableStatusCodes are HTTP status codes that should trigger a retry
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// ShouldRotateKey checks if the status code indicates we should try another key
func ShouldRotateKey(statusCode int) bool {
	return slices.Contains(config.RotatableErrorCodes, statusCode)
}

// ShouldRetryAPICall checks if the status code indicates a transient failure
func ShouldRetryAPICall(statusCode int) bool {
	return slices.Contains(RetryableStatusCodes, statusCode)
}

// CalculateAPIBackoff returns the backoff duration for a given attempt number
func CalculateAPIBackoff(attempt int) time.Duration {
	backoff := APIInitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > APIMaxBackoff {
			return APIMaxBackoff
		}
	}
	return backoff
}

// RetryableFunc is a function that can be retried
type RetryableFunc[T any] func() (T, error)

// WithRetry runs fn, retrying *APIError failures with a retryable status
// code using exponential backoff. Other errors return immediately.
func WithRetry[T any](ctx context.Context, fn RetryableFunc[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < MaxAPIRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("operation cancelled: %w", err)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !ShouldRetryAPICall(apiErr.StatusCode) {
			return zero, err
		}

		if attempt < MaxAPIRetryAttempts-1 {
			logging.Debug("retrying chat request", logging.Fields{
				"status":  apiErr.StatusCode,
				"attempt": attempt + 1,
			})
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("operation cancelled: %w", ctx.Err())
			case <-time.After(CalculateAPIBackoff(attempt)):
			}
		}
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", MaxAPIRetryAttempts, lastErr)
}

// StreamRetryableFunc opens a streaming response. The caller closes the
// body on success.
type StreamRetryableFunc func() (*http.Response, error)

// WithStreamRetry retries opening the stream like WithRetry, then consumes
// it with an SSEProcessor. Failures after the stream starts are not retried.
func WithStreamRetry(ctx context.Context, fn StreamRetryableFunc, onChunk func(content string)) (*ChatResponse, error) {
	resp, err := WithRetry(ctx, RetryableFunc[*http.Response](fn))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	processor := NewSSEProcessor(resp.Body)
	if err := processor.Process(ctx, onChunk); err != nil {
		return nil, fmt.Errorf("failed to process stream: %w", err)
	}
	return processor.BuildResponse(), nil
}

// withKeyRotation calls fn with the current key and moves to the next key
// whenever the server rejects it with a rotatable status code. The last
// error is returned once every key has been tried.
func withKeyRotation[T any](keys *config.KeyRotator, fn func(key string) (T, error)) (T, error) {
	for {
		result, err := fn(keys.GetCurrentKey())
		if err == nil {
			return result, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !ShouldRotateKey(apiErr.StatusCode) {
			return result, err
		}

		from := keys.GetCurrentIndex() + 1
		if _, rotateErr := keys.Rotate(); rotateErr != nil {
			return result, err
		}
		logging.Warn("API key rejected, rotating", logging.Fields{
			"status": apiErr.StatusCode,
			"from":   from,
			"to":     keys.GetCurrentIndex() + 1,
			"total":  keys.GetKeyCount(),
		})
	}
}
