package ui

import (
	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/session"
)

// TurnsMsg carries the full conversation snapshot after any turn change,
// status updates included.
type TurnsMsg []session.Turn

// DocumentMsg carries a document snapshot for the canvas pane. Delivery is
// throttled upstream, so consecutive messages are at least one update
// interval apart.
type DocumentMsg document.Snapshot

// ResponseDoneMsg signals that the in-flight turn has settled, whether by
// completion, cancellation, or error.
type ResponseDoneMsg struct{}

// ModelsMsg carries the model identifiers the backend reported.
type ModelsMsg []string

// ErrorMsg carries a background failure for display.
type ErrorMsg error
