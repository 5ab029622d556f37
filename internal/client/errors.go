package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// APIError represents a backend error with HTTP status code. RetryAfter
// carries the response's Retry-After header when the backend sent one;
// zero means the server gave no pacing hint.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ErrStreamIdleTimeout indicates the stream stalled (no data for the
// configured timeout).
type ErrStreamIdleTimeout struct {
	Timeout time.Duration
	Partial bool // true if some content was received before the stall
}

func (e *ErrStreamIdleTimeout) Error() string {
	if e.Partial {
		return fmt.Sprintf("stream idle timeout after partial response: no data for %v", e.Timeout)
	}
	return fmt.Sprintf("stream idle timeout: no data received for %v", e.Timeout)
}

// IsStreamIdleTimeout checks whether err is an ErrStreamIdleTimeout.
func IsStreamIdleTimeout(err error) bool {
	var sitErr *ErrStreamIdleTimeout
	return errors.As(err, &sitErr)
}

// IsRetryableAPIError returns true if the API error has a retryable status code.
func IsRetryableAPIError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
	}
	return false
}

// IsRetryableError checks if an error is retryable using proper type checks.
// Uses errors.Is/errors.As for typed errors, with string fallback only for
// untyped errors from third-party libraries.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// User cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if IsStreamIdleTimeout(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if IsRetryableAPIError(err) {
		return true
	}

	// String fallback only for untyped errors
	msg := strings.ToLower(err.Error())
	untyped := []string{
		"connection refused",
		"connection reset",
		"eof",
		"no such host",
		"tls handshake",
	}
	for _, pattern := range untyped {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
