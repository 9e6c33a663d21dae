package gateway

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"
)

const (
	DefaultMaxRetries = 2
	BaseDelay         = 250 * time.Millisecond
	MaxDelay          = 2 * time.Second
)

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *retryableStatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// 429 is deliberately absent: it is reported as RateLimited, not retried.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	return min(time.Duration(float64(BaseDelay)*math.Pow(2, float64(attempt))), MaxDelay)
}

func withRetry[T any](ctx context.Context, maxRetries int, delay func(int) time.Duration, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay(attempt - 1)):
			}
		}

		result, lastErr = fn()
		if lastErr == nil || !isRetryable(lastErr) {
			return result, lastErr
		}
	}

	return result, lastErr
}

type retryableStatusError struct {
	StatusCode int
}

func (e *retryableStatusError) Error() string {
	return http.StatusText(e.StatusCode)
}
