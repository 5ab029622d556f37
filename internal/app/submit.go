package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/cuba6112/lesson-builder/internal/client"
	"github.com/cuba6112/lesson-builder/internal/command"
	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/extract"
	"github.com/cuba6112/lesson-builder/internal/logging"
	"github.com/cuba6112/lesson-builder/internal/progress"
	"github.com/cuba6112/lesson-builder/internal/session"
	"github.com/cuba6112/lesson-builder/internal/ui"
)

const statusThinking = "Thinking…"

// processTurn drives one full exchange: user turn in, streamed reply,
// parsed commands executed, assistant turn out. It runs on its own
// goroutine and hands any queued message to a fresh Submit when done.
func (a *App) processTurn(message string) {
	defer func() {
		a.mu.Lock()
		a.processing = false
		a.mu.Unlock()

		a.pendingMu.Lock()
		pending := a.pendingMessage
		a.pendingMessage = ""
		a.pendingMu.Unlock()

		if pending != "" {
			logging.Debug("processing queued message", "len", len(pending))
			a.Submit(pending)
		}
	}()

	a.sess.AddUser(message)
	a.sess.SetStatus(statusThinking)
	a.sendTurns()

	ctx := a.sess.BeginTurn(context.Background())
	defer a.sess.EndTurn()

	// Streamed deltas land in the status turn at most once per update
	// interval, latest text winning.
	statusThrottle := progress.NewThrottle(a.cfg.UI.UpdateInterval, func(text string) {
		a.sess.SetStatus(text)
		a.sendTurns()
	})

	raw, err := a.chatWithRetry(ctx, a.buildMessages(), statusThrottle)
	statusThrottle.Stop()

	switch {
	case errors.Is(err, context.Canceled):
		a.settleCancelled(raw)
	case err != nil:
		a.settleFailed(err)
	default:
		a.settleReply(ctx, raw)
	}

	a.sendTurns()
	a.send(ui.ResponseDoneMsg{})
	a.persist()
}

// chatWithRetry runs the streaming request, retrying transient failures
// with exponential backoff. Cancellation is returned immediately with
// whatever text accumulated.
func (a *App) chatWithRetry(ctx context.Context, messages []api.Message, throttle *progress.Throttle[string]) (string, error) {
	policy := client.RetryPolicy{
		MaxRetries: a.cfg.API.MaxRetries,
		BaseDelay:  a.cfg.API.RetryDelay,
	}

	var retries, partialRetries int
	for {
		raw, err := a.client.Chat(ctx, messages, func(_, accumulated string) {
			throttle.Publish(accumulated)
		})
		if err == nil {
			return raw, nil
		}

		// A cancel that lands after the attempt failed still settles the
		// turn as cancelled, not as a transport error.
		if ctx.Err() != nil {
			return raw, ctx.Err()
		}

		decision := client.DecideRetry(policy, err, retries, partialRetries, ctx)
		if !decision.ShouldRetry {
			return raw, err
		}
		if decision.Partial {
			partialRetries++
		} else {
			retries++
		}

		logging.Warn("chat request failed, retrying",
			"error", err, "delay", decision.Delay, "attempt", retries+partialRetries)
		select {
		case <-time.After(decision.Delay):
		case <-ctx.Done():
			return raw, ctx.Err()
		}
	}
}

// settleCancelled turns an interrupted stream into a settled turn. The
// partial text stands as the reply; no commands run, no error is shown.
func (a *App) settleCancelled(partial string) {
	logging.Info("turn cancelled", "partial_len", len(partial))
	text := strings.TrimSpace(partial)
	if text == "" {
		a.sess.ClearStatus()
		return
	}
	a.sess.AddAssistant(text, nil)
}

// settleFailed replaces the status turn with one concise error turn.
func (a *App) settleFailed(err error) {
	logging.Error("chat request failed", "error", err)
	a.sess.AddAssistant(fmt.Sprintf("Something went wrong talking to the model: %v", err), nil)
}

// settleReply parses the completed response, executes any commands, and
// records the assistant turn with its audit trail.
func (a *App) settleReply(ctx context.Context, raw string) {
	reply := extract.ParseReply(raw)
	logging.Debug("reply parsed",
		"structured", reply.Structured, "commands", len(reply.Commands))

	var results []command.Result
	if len(reply.Commands) > 0 {
		a.executor.SetHandler(command.Handler{
			OnCommandStart: func(name string) {
				a.sess.SetStatus("Running " + name + "…")
				a.sendTurns()
			},
		})
		results = a.executor.Execute(ctx, reply.Commands)
		if anySucceeded(results) {
			a.history.Record(a.store.Snapshot())
		}
	}

	a.sess.AddAssistant(reply.Message, results)
}

func anySucceeded(results []command.Result) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}

func (a *App) persist() {
	if a.sessions != nil {
		if err := a.sessions.Save(a.sess); err != nil {
			logging.Warn("conversation save failed", "error", err)
		}
	}
	if err := document.SaveSnapshot(a.cfg.Storage.DataDir, a.store.Snapshot()); err != nil {
		logging.Warn("document save failed", "error", err)
	}
}

// buildMessages assembles the wire conversation: the system prompt, every
// settled turn, and the user message just added.
func (a *App) buildMessages() []api.Message {
	turns := a.sess.PersistableTurns()
	messages := make([]api.Message, 0, len(turns)+1)
	messages = append(messages, api.Message{
		Role:    "system",
		Content: systemPrompt(a.store.Snapshot()),
	})
	for _, t := range turns {
		role := "user"
		if t.Role == session.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: t.Content})
	}
	return messages
}
