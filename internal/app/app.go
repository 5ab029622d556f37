// Package app wires the pieces together: it owns the conversation loop
// that takes a user message through the streaming backend, the reply
// parser, and the command executor, and feeds the resulting turn and
// document updates to the terminal UI.
package app

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cuba6112/lesson-builder/internal/client"
	"github.com/cuba6112/lesson-builder/internal/command"
	"github.com/cuba6112/lesson-builder/internal/config"
	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/logging"
	"github.com/cuba6112/lesson-builder/internal/progress"
	"github.com/cuba6112/lesson-builder/internal/ratelimit"
	"github.com/cuba6112/lesson-builder/internal/session"
	"github.com/cuba6112/lesson-builder/internal/ui"
	"github.com/cuba6112/lesson-builder/internal/undo"
)

// Sender delivers messages to the running UI program. *tea.Program
// satisfies it; tests substitute a recorder.
type Sender interface {
	Send(msg tea.Msg)
}

// App coordinates one open document and its conversation.
type App struct {
	cfg      *config.Config
	client   client.Client
	store    *document.Store
	executor *command.Executor
	sess     *session.Session
	sessions *session.Store

	mu         sync.Mutex
	program    Sender
	processing bool

	// One pending message at most. New input while busy replaces it.
	pendingMu      sync.Mutex
	pendingMessage string

	docThrottle *progress.Throttle[document.Snapshot]
	history     *undo.Manager
	limiter     *ratelimit.Bucket
}

// New assembles the application around an existing document store and
// session. The store's mutation stream is throttled before reaching the
// UI so rapid command batches do not flood the render loop.
func New(cfg *config.Config, cl client.Client, store *document.Store, sess *session.Session, sessions *session.Store) *App {
	a := &App{
		cfg:      cfg,
		client:   cl,
		store:    store,
		executor: command.NewExecutor(store),
		sess:     sess,
		sessions: sessions,
		history:  undo.NewManager(store.Snapshot()),
		limiter:  ratelimit.NewBucket(submitBurst, submitRefillPerSec),
	}
	a.docThrottle = progress.NewThrottle(cfg.UI.UpdateInterval, func(snap document.Snapshot) {
		a.send(ui.DocumentMsg(snap))
	})
	store.Subscribe(func(snap document.Snapshot) {
		a.docThrottle.Publish(snap)
	})
	return a
}

// SetProgram attaches the UI program once it exists.
func (a *App) SetProgram(p Sender) {
	a.mu.Lock()
	a.program = p
	a.mu.Unlock()
}

// Session exposes the conversation for the UI's initial render.
func (a *App) Session() *session.Session {
	return a.sess
}

// Document returns the current document snapshot.
func (a *App) Document() document.Snapshot {
	return a.store.Snapshot()
}

// Keystroke repeat and accidental double-enter should not fan out into
// duplicate backend requests.
const (
	submitBurst        = 3
	submitRefillPerSec = 0.5
)

// errTooFast reaches the UI when the submission limiter drops a message.
var errTooFast = errors.New("too many messages at once; that one was not sent")

// Submit accepts a user message. If a turn is already in flight the
// message is queued; a newer submission replaces an older queued one.
// Submissions beyond a short burst are dropped with a visible notice.
func (a *App) Submit(message string) {
	if !a.limiter.Allow() {
		logging.Warn("submission rate limited", "len", len(message))
		a.send(ui.ErrorMsg(errTooFast))
		return
	}

	a.mu.Lock()
	if a.processing {
		a.mu.Unlock()

		a.pendingMu.Lock()
		if a.pendingMessage != "" {
			logging.Debug("queued message replaced", "dropped_len", len(a.pendingMessage))
		}
		a.pendingMessage = message
		a.pendingMu.Unlock()
		return
	}
	a.processing = true
	a.mu.Unlock()

	go a.processTurn(message)
}

// Cancel interrupts the in-flight turn, if any. The partial streamed text
// settles as the assistant's reply.
func (a *App) Cancel() {
	a.sess.Cancel()
}

// Undo rolls the document back one command batch. It reports whether
// there was anything to undo.
func (a *App) Undo() bool {
	snap, ok := a.history.Undo()
	if !ok {
		return false
	}
	a.store.Apply(snap)
	logging.Info("document undo", "document", snap.ID)
	return true
}

// Redo re-applies the most recently undone command batch.
func (a *App) Redo() bool {
	snap, ok := a.history.Redo()
	if !ok {
		return false
	}
	a.store.Apply(snap)
	logging.Info("document redo", "document", snap.ID)
	return true
}

// Busy reports whether a turn is in flight.
func (a *App) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.processing
}

// ListModels queries the backend for available model identifiers and
// delivers them to the UI.
func (a *App) ListModels(ctx context.Context) {
	go func() {
		models, err := a.client.ListModels(ctx)
		if err != nil {
			logging.Warn("model listing failed", "error", err)
			a.send(ui.ErrorMsg(err))
			return
		}
		a.send(ui.ModelsMsg(models))
	}()
}

// SetModel switches the model for subsequent turns and persists the
// choice so the next start uses it.
func (a *App) SetModel(model string) {
	a.client.SetModel(model)
	a.sess.SetModel(model)
	a.cfg.Model.Name = model
	if err := a.cfg.Save(); err != nil {
		logging.Warn("persisting model choice failed", "error", err)
	}
	logging.Info("model switched", "model", model)
}

// Close releases the turn handle and stops the document throttle.
func (a *App) Close() {
	a.sess.EndTurn()
	a.docThrottle.Stop()
}

func (a *App) send(msg tea.Msg) {
	a.mu.Lock()
	program := a.program
	a.mu.Unlock()
	if program != nil {
		program.Send(msg)
	}
}

func (a *App) sendTurns() {
	a.send(ui.TurnsMsg(a.sess.Turns()))
}
