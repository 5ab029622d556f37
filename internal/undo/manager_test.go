package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuba6112/lesson-builder/internal/document"
)

func snap(title string) document.Snapshot {
	return document.Snapshot{ID: "doc", Title: title}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(snap("start"))
	m.Record(snap("v1"))
	m.Record(snap("v2"))

	s, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, "v1", s.Title)

	s, ok = m.Undo()
	require.True(t, ok)
	assert.Equal(t, "start", s.Title)

	_, ok = m.Undo()
	assert.False(t, ok)

	s, ok = m.Redo()
	require.True(t, ok)
	assert.Equal(t, "v1", s.Title)

	s, ok = m.Redo()
	require.True(t, ok)
	assert.Equal(t, "v2", s.Title)

	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestRecordClearsRedo(t *testing.T) {
	m := NewManager(snap("start"))
	m.Record(snap("v1"))

	_, ok := m.Undo()
	require.True(t, ok)
	require.True(t, m.CanRedo())

	m.Record(snap("branch"))
	assert.False(t, m.CanRedo())

	s, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, "start", s.Title)
}

func TestHistoryBounded(t *testing.T) {
	m := NewManager(snap("start"))
	for i := 0; i < defaultLimit+10; i++ {
		m.Record(snap("v"))
	}

	undos := 0
	for {
		if _, ok := m.Undo(); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, defaultLimit, undos)
}
