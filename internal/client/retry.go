package client

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy defines retry behavior for failed chat requests. Retries are
// orchestrated at the app layer; the transport itself never retries.
type RetryPolicy struct {
	// MaxRetries applies to cold failures and generic retryable errors.
	MaxRetries int
	// MaxPartialRetries applies when the stream stalled after partial output.
	// Re-sending after partial output duplicates visible text, so these are
	// capped separately and off by default.
	MaxPartialRetries int
	// BaseDelay is the initial backoff delay before retry.
	BaseDelay time.Duration
	// MaxDelay caps exponential backoff growth.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the defaults used when config leaves the
// policy unset.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		MaxPartialRetries: 0,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
	}
}

// RetryDecision is the result of retry policy evaluation.
type RetryDecision struct {
	ShouldRetry bool
	Delay       time.Duration
	Partial     bool
}

// DecideRetry evaluates whether a failed chat request should be retried.
// retryCount and partialRetryCount are the already-used retries for their
// categories. Cancellation is never retried.
func DecideRetry(policy RetryPolicy, err error, retryCount, partialRetryCount int, ctx context.Context) RetryDecision {
	if err == nil {
		return RetryDecision{}
	}
	if ctx != nil && ctx.Err() != nil {
		return RetryDecision{}
	}
	if errors.Is(err, context.Canceled) {
		return RetryDecision{}
	}

	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy()
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}

	var sitErr *ErrStreamIdleTimeout
	if errors.As(err, &sitErr) && sitErr.Partial {
		if partialRetryCount >= policy.MaxPartialRetries {
			return RetryDecision{}
		}
		return RetryDecision{
			ShouldRetry: true,
			Delay:       CalculateBackoff(policy.BaseDelay, partialRetryCount, policy.MaxDelay),
			Partial:     true,
		}
	}

	if !IsRetryableError(err) || retryCount >= policy.MaxRetries {
		return RetryDecision{}
	}

	delay := CalculateBackoff(policy.BaseDelay, retryCount, policy.MaxDelay)

	// A server-sent Retry-After overrides the computed backoff, still
	// capped so a hostile header cannot park the client indefinitely.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		delay = apiErr.RetryAfter
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return RetryDecision{ShouldRetry: true, Delay: delay}
}

// CalculateBackoff calculates exponential backoff with jitter.
// This prevents the thundering herd problem when many clients retry
// simultaneously.
func CalculateBackoff(baseDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}

	// Add jitter: random value between 0 and 25% of delay
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}

// ParseRetryAfter extracts a Retry-After duration from an HTTP response.
// Supports both seconds (integer) and HTTP-date formats.
// Returns 0 if the header is absent or unparseable.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}

	return 0
}
