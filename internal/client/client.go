// Package client implements the streaming transport to the inference
// backend. The wire contract is Ollama's chat API: a request with
// {model, messages, stream:true} answered by newline-delimited JSON
// objects, each carrying a content delta, the last one flagged done.
package client

import (
	"context"

	"github.com/ollama/ollama/api"
)

// ChunkHandler receives every parsed content delta along with the text
// accumulated so far, enabling live display before the response completes.
type ChunkHandler func(delta, accumulated string)

// Client is the inference backend interface.
type Client interface {
	// Chat sends the conversation and streams the reply. It returns the
	// full accumulated text once the backend signals completion.
	//
	// On cancellation Chat returns the text accumulated so far together
	// with ctx.Err(); callers treat that pairing as a deliberately partial
	// response, not a transport failure.
	Chat(ctx context.Context, messages []api.Message, onChunk ChunkHandler) (string, error)

	// ListModels returns the model identifiers the backend can serve.
	ListModels(ctx context.Context) ([]string, error)

	// Model returns the configured model identifier.
	Model() string

	// SetModel switches the model used for subsequent requests.
	SetModel(model string)
}
