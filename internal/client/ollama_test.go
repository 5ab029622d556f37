package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/ollama/api"
)

func newTestClient(t *testing.T, baseURL string, idleTimeout time.Duration) *OllamaClient {
	t.Helper()
	c, err := NewOllamaClient(OllamaConfig{
		BaseURL:           baseURL,
		Model:             "test-model",
		StreamIdleTimeout: idleTimeout,
	})
	require.NoError(t, err)
	return c
}

func userMessage(text string) []api.Message {
	return []api.Message{{Role: "user", Content: text}}
}

func TestChatAccumulatesDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		f := w.(http.Flusher)
		for _, delta := range []string{"Hello", ", ", "world"} {
			fmt.Fprintf(w, `{"message":{"content":%q}}`+"\n", delta)
			f.Flush()
		}
		fmt.Fprintln(w, `{"message":{"content":""},"done":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)

	var deltas []string
	var lastAccumulated string
	got, err := c.Chat(context.Background(), userMessage("hi"), func(delta, acc string) {
		deltas = append(deltas, delta)
		lastAccumulated = acc
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, world", got)
	assert.Equal(t, []string{"Hello", ", ", "world"}, deltas)
	assert.Equal(t, "Hello, world", lastAccumulated)
}

// A response line split across two network writes must be rejoined, and the
// fragment before the join must never reach the callback.
func TestChatRejoinsLineAcrossReads(t *testing.T) {
	full := `{"message":{"content":"spanning line"}}` + "\n"
	half := len(full) / 2

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		fmt.Fprint(w, full[:half])
		f.Flush()
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, full[half:])
		f.Flush()
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)

	var deltas []string
	got, err := c.Chat(context.Background(), userMessage("hi"), func(delta, _ string) {
		deltas = append(deltas, delta)
	})

	require.NoError(t, err)
	assert.Equal(t, "spanning line", got)
	assert.Equal(t, []string{"spanning line"}, deltas)
}

func TestChatSkipsUnparseableLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"before"}}`)
		fmt.Fprintln(w, `this is not json at all`)
		fmt.Fprintln(w, `{"message":{"content":" after"}}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.Chat(context.Background(), userMessage("hi"), nil)

	require.NoError(t, err)
	assert.Equal(t, "before after", got)
}

func TestChatDoneWithoutTrailingNewline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"x"}}`)
		fmt.Fprint(w, `{"done":true}`) // no newline before EOF
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.Chat(context.Background(), userMessage("hi"), nil)

	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestChatStopsReadingAtDoneMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"kept"}}`)
		fmt.Fprintln(w, `{"done":true}`)
		fmt.Fprintln(w, `{"message":{"content":"ignored"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.Chat(context.Background(), userMessage("hi"), nil)

	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}

func TestChatNonOKStatusIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Chat(context.Background(), userMessage("hi"), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "model not found")
}

func TestChatCapturesRetryAfterHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		http.Error(w, `{"error":"busy"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Chat(context.Background(), userMessage("hi"), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
}

func TestChatTruncatedStreamIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"partial"}}`)
		// connection closes without a done marker
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	got, err := c.Chat(context.Background(), userMessage("hi"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion marker")
	assert.Equal(t, "partial", got)
}

// Cancelling mid-stream returns a strict prefix of the full response along
// with ctx.Err(), not a transport error.
func TestChatCancellationReturnsPrefix(t *testing.T) {
	const fullResponse = "abcdefghij"

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		for i, ch := range fullResponse {
			fmt.Fprintf(w, `{"message":{"content":%q}}`+"\n", string(ch))
			f.Flush()
			if i == 2 {
				<-release // hold the stream open until the client cancels
			}
		}
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, srv.URL, 0)

	var accumulated string
	got, err := c.Chat(ctx, userMessage("hi"), func(_, acc string) {
		accumulated = acc
		if len(acc) >= 3 {
			cancel()
		}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, strings.HasPrefix(fullResponse, got),
		"accumulated text %q must be a prefix of the full response", got)
	assert.Equal(t, accumulated, got)
	assert.NotEmpty(t, got)
}

func TestChatIdleTimeout(t *testing.T) {
	stall := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := w.(http.Flusher)
		fmt.Fprintln(w, `{"message":{"content":"early"}}`)
		f.Flush()
		<-stall // never send the rest
	}))
	defer srv.Close()
	defer close(stall)

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	got, err := c.Chat(context.Background(), userMessage("hi"), nil)

	var sitErr *ErrStreamIdleTimeout
	require.ErrorAs(t, err, &sitErr)
	assert.True(t, sitErr.Partial)
	assert.Equal(t, "early", got)
}

func TestNewOllamaClientValidation(t *testing.T) {
	_, err := NewOllamaClient(OllamaConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewOllamaClient(OllamaConfig{BaseURL: "http://localhost:11434"})
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(&APIError{StatusCode: 503}))
	assert.False(t, IsRetryableError(&APIError{StatusCode: 400}))
	assert.True(t, IsRetryableError(&ErrStreamIdleTimeout{Timeout: time.Second}))
	assert.True(t, IsRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, IsRetryableError(errors.New("schema mismatch")))
}

func TestDecideRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, MaxPartialRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Second}

	d := DecideRetry(policy, &APIError{StatusCode: 503}, 0, 0, context.Background())
	assert.True(t, d.ShouldRetry)

	d = DecideRetry(policy, &APIError{StatusCode: 503}, 2, 0, context.Background())
	assert.False(t, d.ShouldRetry, "retry budget exhausted")

	d = DecideRetry(policy, context.Canceled, 0, 0, context.Background())
	assert.False(t, d.ShouldRetry, "cancellation is never retried")

	d = DecideRetry(policy, &ErrStreamIdleTimeout{Partial: true}, 0, 0, context.Background())
	assert.False(t, d.ShouldRetry, "partial stalls not retried by default")
}

func TestDecideRetryHonorsRetryAfter(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Second}

	d := DecideRetry(policy, &APIError{StatusCode: 429, RetryAfter: 3 * time.Second}, 0, 0, context.Background())
	require.True(t, d.ShouldRetry)
	assert.Equal(t, 3*time.Second, d.Delay, "server hint replaces computed backoff")

	d = DecideRetry(policy, &APIError{StatusCode: 429, RetryAfter: time.Hour}, 0, 0, context.Background())
	require.True(t, d.ShouldRetry)
	assert.Equal(t, policy.MaxDelay, d.Delay, "hint is capped at the policy maximum")
}
