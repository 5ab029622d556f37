// Package session tracks one open conversation: its ordered turns, the
// selected model, and the cancellation handle for the turn in flight.
// A session is created when the chat surface opens and discarded, never
// merged, when the user switches documents.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuba6112/lesson-builder/internal/command"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit. Status turns are ephemeral "working…" entries:
// they are replaced wholesale by the next status update and never persisted.
type Turn struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Results   []command.Result `json:"commandResults,omitempty"`
	IsStatus  bool             `json:"-"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Session is the conversation state for one open document.
type Session struct {
	mu     sync.Mutex
	docID  string
	model  string
	turns  []Turn
	cancel context.CancelFunc
}

// New creates a session bound to a document.
func New(docID, model string) *Session {
	return &Session{docID: docID, model: model}
}

// DocumentID returns the identity of the document this session belongs to.
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// Model returns the selected model identifier.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel switches the selected model.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// Turns returns a snapshot of all turns, status entries included.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// SetTurns replaces the turn list, used when restoring a persisted
// conversation.
func (s *Session) SetTurns(turns []Turn) {
	s.mu.Lock()
	s.turns = make([]Turn, len(turns))
	copy(s.turns, turns)
	s.mu.Unlock()
}

// AddUser appends a user turn and returns it.
func (s *Session) AddUser(content string) Turn {
	t := Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.turns = append(s.turns, t)
	s.mu.Unlock()
	return t
}

// AddAssistant appends an assistant turn carrying the display message and
// the command audit trail, replacing any live status turn.
func (s *Session) AddAssistant(content string, results []command.Result) Turn {
	t := Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Results:   results,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.dropStatusLocked()
	s.turns = append(s.turns, t)
	s.mu.Unlock()
	return t
}

// SetStatus replaces the current status turn (or appends one) with new
// ephemeral content. The previous status text is gone for good: status
// turns are replaced wholesale, not edited.
func (s *Session) SetStatus(content string) {
	s.mu.Lock()
	s.dropStatusLocked()
	s.turns = append(s.turns, Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		IsStatus:  true,
		CreatedAt: time.Now(),
	})
	s.mu.Unlock()
}

// ClearStatus removes the live status turn, if any.
func (s *Session) ClearStatus() {
	s.mu.Lock()
	s.dropStatusLocked()
	s.mu.Unlock()
}

func (s *Session) dropStatusLocked() {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].IsStatus {
			s.turns = append(s.turns[:i], s.turns[i+1:]...)
		}
	}
}

// BeginTurn creates the cancellation handle for a new turn, cancelling any
// handle still live from a previous one.
func (s *Session) BeginTurn(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()
	return ctx
}

// Cancel fires the live turn's cancellation handle. Safe to call when no
// turn is in flight, and idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// EndTurn releases the cancellation handle after a turn settles.
func (s *Session) EndTurn() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// PersistableTurns returns the turns that survive a reload: everything
// except ephemeral status entries.
func (s *Session) PersistableTurns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		if t.IsStatus {
			continue
		}
		out = append(out, t)
	}
	return out
}
