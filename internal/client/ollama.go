package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/cuba6112/lesson-builder/internal/logging"
)

const (
	// readBufferSize is the network read granularity. A response line
	// routinely spans several reads of this size.
	readBufferSize = 4096
	// maxErrorBodySize bounds how much of an error response body is kept.
	maxErrorBodySize = 4096
	// listTimeout caps the model listing request.
	listTimeout = 5 * time.Second
)

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	BaseURL           string
	Model             string
	Temperature       float32
	MaxTokens         int
	HTTPTimeout       time.Duration
	StreamIdleTimeout time.Duration
}

// OllamaClient talks to an Ollama server.
type OllamaClient struct {
	config     OllamaConfig
	httpClient *http.Client

	modelMu sync.RWMutex
	model   string
}

// NewOllamaClient creates a client for the configured Ollama server.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("ollama base URL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	return &OllamaClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.HTTPTimeout},
		model:      config.Model,
	}, nil
}

// Model returns the configured model identifier.
func (c *OllamaClient) Model() string {
	c.modelMu.RLock()
	defer c.modelMu.RUnlock()
	return c.model
}

// SetModel switches the model used for subsequent requests.
func (c *OllamaClient) SetModel(model string) {
	c.modelMu.Lock()
	c.model = model
	c.modelMu.Unlock()
}

// Chat sends the conversation and consumes the NDJSON response stream.
// Every successfully parsed content delta is appended to the accumulated
// text and handed to onChunk; lines that fail to parse are skipped, which
// is the expected fate of fragments truncated mid-stream. Reading stops at
// the done marker.
func (c *OllamaClient) Chat(ctx context.Context, messages []api.Message, onChunk ChunkHandler) (string, error) {
	model := c.Model()

	stream := true
	chatReq := api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  c.requestOptions(),
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	// Derived context so the idle watchdog can abort a stalled read without
	// disturbing the caller's cancellation handle.
	reqCtx, cancelReq := context.WithCancel(ctx)
	defer cancelReq()

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.Debug("chat request", "model", model, "messages", len(messages))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			RetryAfter: ParseRetryAfter(resp),
		}
	}

	return c.readStream(ctx, cancelReq, resp.Body, onChunk)
}

// readStream drives the NDJSON read loop. Partial trailing lines are held
// back until the next read supplies their continuation; the idle watchdog
// aborts the read when no data arrives for the configured timeout.
func (c *OllamaClient) readStream(ctx context.Context, abort context.CancelFunc, body io.Reader, onChunk ChunkHandler) (string, error) {
	var (
		accumulated strings.Builder
		carry       []byte
		idleFired   atomic.Bool
	)

	var idle *time.Timer
	if c.config.StreamIdleTimeout > 0 {
		idle = time.AfterFunc(c.config.StreamIdleTimeout, func() {
			idleFired.Store(true)
			abort()
		})
		defer idle.Stop()
	}

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)

		if n > 0 {
			if idle != nil {
				idle.Reset(c.config.StreamIdleTimeout)
			}

			carry = append(carry, buf[:n]...)
			for {
				nl := bytes.IndexByte(carry, '\n')
				if nl < 0 {
					break // incomplete trailing fragment, wait for more
				}
				line := carry[:nl]
				carry = carry[nl+1:]

				done := c.consumeLine(line, &accumulated, onChunk)
				if done {
					return accumulated.String(), nil
				}
			}
		}

		// Cancellation is checked after every read iteration; the text so
		// far is returned as a deliberately incomplete response.
		if ctx.Err() != nil {
			logging.Info("stream cancelled", "accumulated_chars", accumulated.Len())
			return accumulated.String(), ctx.Err()
		}

		if readErr != nil {
			if readErr == io.EOF {
				// The final line may arrive without a trailing newline.
				if done := c.consumeLine(carry, &accumulated, onChunk); done {
					return accumulated.String(), nil
				}
				return accumulated.String(), fmt.Errorf("stream ended before completion marker")
			}
			if idleFired.Load() {
				return accumulated.String(), &ErrStreamIdleTimeout{
					Timeout: c.config.StreamIdleTimeout,
					Partial: accumulated.Len() > 0,
				}
			}
			return accumulated.String(), fmt.Errorf("stream read failed: %w", readErr)
		}
	}
}

// consumeLine parses one NDJSON line, appending any content delta and
// reporting whether the completion marker was seen. Unparseable lines are
// skipped silently: truncated fragments are expected, not an error.
func (c *OllamaClient) consumeLine(line []byte, accumulated *strings.Builder, onChunk ChunkHandler) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}

	var chunk api.ChatResponse
	if err := json.Unmarshal(line, &chunk); err != nil {
		logging.Debug("skipping unparseable stream line", "bytes", len(line))
		return false
	}

	if chunk.Message.Content != "" {
		accumulated.WriteString(chunk.Message.Content)
		if onChunk != nil {
			onChunk(chunk.Message.Content, accumulated.String())
		}
	}

	return chunk.Done
}

// requestOptions maps sampling config onto Ollama request options.
func (c *OllamaClient) requestOptions() map[string]any {
	opts := map[string]any{}
	if c.config.Temperature > 0 {
		opts["temperature"] = c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		opts["num_predict"] = c.config.MaxTokens
	}
	return opts
}

// ListModels returns the models installed on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	apiClient := api.NewClient(baseURL, &http.Client{Timeout: listTimeout})
	resp, err := apiClient.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}
