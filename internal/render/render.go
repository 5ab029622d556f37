// Package render turns markdown and document snapshots into styled
// terminal output. Renderers are constructed explicitly and passed to
// whatever view needs one, so each surface controls its own width and
// style instead of sharing hidden global state.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps a glamour terminal renderer at a fixed wrap width.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// New builds a renderer wrapping at the given width. Width values below
// a readable minimum are clamped.
func New(width int) (*Renderer, error) {
	if width < 20 {
		width = 20
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{tr: tr, width: width}, nil
}

// Width returns the wrap width this renderer was built with.
func (r *Renderer) Width() int {
	return r.width
}

// Markdown renders markdown for the terminal. On renderer failure the raw
// text comes back unchanged so the conversation never goes blank.
func (r *Renderer) Markdown(markdown string) string {
	if r == nil || r.tr == nil {
		return markdown
	}
	out, err := r.tr.Render(markdown)
	if err != nil {
		return markdown
	}
	return normalizeSpacing(out)
}

func normalizeSpacing(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}
