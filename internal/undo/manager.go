// Package undo keeps a bounded history of document snapshots so command
// batches can be rolled back and rolled forward as whole units.
package undo

import (
	"sync"

	"github.com/cuba6112/lesson-builder/internal/document"
)

const defaultLimit = 50

// Manager holds the undo and redo stacks. One snapshot is captured per
// command batch, so a single undo reverts everything that batch did.
type Manager struct {
	mu      sync.Mutex
	past    []document.Snapshot
	future  []document.Snapshot
	limit   int
	current document.Snapshot
	seeded  bool
}

// NewManager creates a history seeded with the document's starting state.
func NewManager(initial document.Snapshot) *Manager {
	return &Manager{
		limit:   defaultLimit,
		current: initial,
		seeded:  true,
	}
}

// Record stores the document state after a batch of mutations. Recording
// clears the redo stack, matching editor convention.
func (m *Manager) Record(snap document.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.past = append(m.past, m.current)
	if len(m.past) > m.limit {
		m.past = m.past[1:]
	}
	m.current = snap
	m.future = nil
}

// Undo returns the previous document state, or false when the history is
// exhausted.
func (m *Manager) Undo() (document.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.past) == 0 {
		return document.Snapshot{}, false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, m.current)
	m.current = prev
	return prev, true
}

// Redo returns the state undone most recently, or false when there is
// nothing to redo.
func (m *Manager) Redo() (document.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.future) == 0 {
		return document.Snapshot{}, false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, m.current)
	m.current = next
	return next, true
}

// CanUndo reports whether an earlier state exists.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanRedo reports whether an undone state exists.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}
