package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/extract"
)

func raw(name string, params map[string]any) extract.RawCommand {
	return extract.RawCommand{Name: name, Params: params}
}

// trackingMutator wraps a real store and records the order and time of
// every mutation.
type trackingMutator struct {
	*document.Store

	mu     sync.Mutex
	events []string
	times  []time.Time
}

func newTrackingMutator() *trackingMutator {
	return &trackingMutator{Store: document.NewStore("doc-test", "")}
}

func (m *trackingMutator) record(event string) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.times = append(m.times, time.Now())
	m.mu.Unlock()
}

func (m *trackingMutator) SetTitle(title string) {
	time.Sleep(5 * time.Millisecond) // widen the race window
	m.record("SetTitle")
	m.Store.SetTitle(title)
}

func (m *trackingMutator) SetIcon(icon string) {
	time.Sleep(5 * time.Millisecond)
	m.record("SetIcon")
	m.Store.SetIcon(icon)
}

func (m *trackingMutator) AddBlock(b document.Block, afterID string) string {
	m.record("AddBlock:" + string(b.Type))
	return m.Store.AddBlock(b, afterID)
}

func (m *trackingMutator) DeleteBlock(id string) {
	m.record("DeleteBlock")
	m.Store.DeleteBlock(id)
}

func TestExecuteParallelSafeBeforeOrderDependent(t *testing.T) {
	m := newTrackingMutator()
	e := NewExecutor(m)

	results := e.Execute(context.Background(), []extract.RawCommand{
		raw("add_heading", map[string]any{"content": "Cells"}),
		raw("set_title", map[string]any{"title": "Cell Biology"}),
		raw("add_block", map[string]any{"content": "Cells are the unit of life."}),
		raw("set_icon", map[string]any{"icon": "🧫"}),
		raw("add_code", map[string]any{"code": "x = 1", "language": "python"}),
	})

	require.Len(t, results, 5)
	for _, r := range results {
		assert.True(t, r.Success, r.Detail)
	}

	// Result order: parallel-safe first in parsed relative order, then the
	// order-dependent commands in parsed order.
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Command)
	}
	assert.Equal(t, []string{"set_title", "set_icon", "add_heading", "add_block", "add_code"}, names)

	// The whole metadata batch finished before the first block mutation.
	m.mu.Lock()
	defer m.mu.Unlock()
	firstBlockEvent := -1
	lastMetaEvent := -1
	for i, ev := range m.events {
		switch ev {
		case "SetTitle", "SetIcon":
			lastMetaEvent = i
		default:
			if firstBlockEvent == -1 {
				firstBlockEvent = i
			}
		}
	}
	require.NotEqual(t, -1, firstBlockEvent)
	require.NotEqual(t, -1, lastMetaEvent)
	assert.Less(t, lastMetaEvent, firstBlockEvent,
		"metadata batch must join before block mutations start")
	assert.False(t, m.times[firstBlockEvent].Before(m.times[lastMetaEvent]))

	// Block mutations applied in parsed order.
	var blockEvents []string
	for _, ev := range m.events {
		if ev != "SetTitle" && ev != "SetIcon" {
			blockEvents = append(blockEvents, ev)
		}
	}
	assert.Equal(t, []string{"AddBlock:heading", "AddBlock:text", "AddBlock:code"}, blockEvents)
}

func TestExecuteIsolatesFailures(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	results := e.Execute(context.Background(), []extract.RawCommand{
		raw("add_heading", map[string]any{"content": "A"}),
		raw("add_code", map[string]any{"code": "x"}), // missing language
		raw("explode", nil),                          // unknown
		raw("add_heading", map[string]any{"content": "B"}),
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Detail, "language")
	assert.False(t, results[2].Success)
	assert.Equal(t, "unknown command", results[2].Detail)
	assert.True(t, results[3].Success, "sibling commands keep running after failures")

	// Both headings landed despite the failures in between.
	assert.Equal(t, 3, doc.Len())
}

func TestExecuteUpdateAndDeleteByPosition(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	results := e.Execute(context.Background(), []extract.RawCommand{
		raw("update_block", map[string]any{"position": 0, "content": "updated"}),
		raw("delete_block", map[string]any{"position": 99}),
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Detail, "no block at position 99")

	b, ok := doc.BlockAt(0)
	require.True(t, ok)
	assert.Equal(t, "updated", b.Content)
}

func TestExecuteInsertAfterPosition(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	e.Execute(context.Background(), []extract.RawCommand{
		raw("add_heading", map[string]any{"content": "H"}),
		raw("add_block", map[string]any{"content": "between", "after": 0}),
	})

	// Initial empty block at 0, so "after":0 puts the text block at 1.
	b, ok := doc.BlockAt(1)
	require.True(t, ok)
	assert.Equal(t, "between", b.Content)
	assert.Equal(t, document.BlockText, b.Type)
}

func TestExecuteCancelledStopsIssuingCommands(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	ctx, cancel := context.WithCancel(context.Background())

	var applied int
	e.SetHandler(Handler{
		OnCommandDone: func(r Result) {
			applied++
			if applied == 2 {
				cancel()
			}
		},
	})

	results := e.Execute(ctx, []extract.RawCommand{
		raw("add_heading", map[string]any{"content": "1"}),
		raw("add_heading", map[string]any{"content": "2"}),
		raw("add_heading", map[string]any{"content": "3"}),
		raw("add_heading", map[string]any{"content": "4"}),
	})

	// Two ran, the rest were never issued; nothing is rolled back.
	assert.Len(t, results, 2)
	assert.Equal(t, 3, doc.Len()) // initial block + two headings
}

func TestExecuteAlreadyCancelledRunsNothing(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.Execute(ctx, []extract.RawCommand{
		raw("set_title", map[string]any{"title": "Cells"}),
		raw("set_icon", map[string]any{"icon": "🧬"}),
		raw("add_heading", map[string]any{"content": "Intro"}),
	})

	assert.Empty(t, results)
	assert.Equal(t, "", doc.Title())
	assert.Equal(t, 1, doc.Len())
}

func TestExecuteQuizValidation(t *testing.T) {
	doc := document.NewStore("doc-test", "")
	e := NewExecutor(doc)

	results := e.Execute(context.Background(), []extract.RawCommand{
		raw("add_quiz", map[string]any{
			"question":      "2+2?",
			"options":       []any{"3", "4", "5"},
			"correct_index": float64(1),
		}),
		raw("add_quiz", map[string]any{
			"question":      "bad",
			"options":       []any{"only one"},
			"correct_index": float64(0),
		}),
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	b, ok := doc.BlockAt(1)
	require.True(t, ok)
	assert.Equal(t, document.BlockQuiz, b.Type)
	assert.Equal(t, []string{"3", "4", "5"}, b.Options)
	assert.Equal(t, 1, b.CorrectIndex)
}

func TestDecodeRejectsFractionalPosition(t *testing.T) {
	_, err := Decode(raw("delete_block", map[string]any{"position": 1.5}))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "position", verr.Param)
}

func TestParallelSafeTableIsMetadataOnly(t *testing.T) {
	// Guard rail: nothing block-mutating may ever appear in the table.
	for _, spec := range Specs() {
		if IsParallelSafe(spec.Name) {
			assert.Contains(t, []string{"set_title", "set_icon"}, spec.Name)
		}
	}
}
