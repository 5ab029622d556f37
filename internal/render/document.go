package render

import (
	"fmt"
	"strings"

	"github.com/cuba6112/lesson-builder/internal/document"
)

// DocumentMarkdown flattens a document snapshot into a single markdown
// string for the canvas pane. Each block type maps to a markdown shape
// that glamour can style.
func DocumentMarkdown(snap document.Snapshot) string {
	var b strings.Builder

	title := snap.Title
	if title == "" {
		title = "Untitled lesson"
	}
	if snap.Icon != "" {
		fmt.Fprintf(&b, "# %s %s\n\n", snap.Icon, title)
	} else {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}

	for _, blk := range snap.Blocks {
		writeBlock(&b, blk)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeBlock(b *strings.Builder, blk document.Block) {
	switch blk.Type {
	case document.BlockHeading:
		fmt.Fprintf(b, "## %s\n\n", blk.Content)
	case document.BlockText:
		if blk.Content != "" {
			fmt.Fprintf(b, "%s\n\n", blk.Content)
		}
	case document.BlockImage:
		writeMedia(b, "Image", blk)
	case document.BlockVideo:
		writeMedia(b, "Video", blk)
	case document.BlockQuiz:
		writeQuiz(b, blk)
	case document.BlockMarkup:
		fmt.Fprintf(b, "```html\n%s\n```\n\n", blk.Content)
	case document.BlockCode:
		writeCode(b, blk)
	case document.BlockComponent:
		fmt.Fprintf(b, "```jsx\n%s\n```\n\n", blk.Content)
	case document.BlockDiagram:
		fmt.Fprintf(b, "```mermaid\n%s\n```\n\n", blk.Content)
	case document.BlockFormula:
		fmt.Fprintf(b, "$$\n%s\n$$\n\n", blk.Content)
	default:
		if blk.Content != "" {
			fmt.Fprintf(b, "%s\n\n", blk.Content)
		}
	}
}

func writeMedia(b *strings.Builder, kind string, blk document.Block) {
	caption := blk.Caption
	if caption == "" {
		caption = kind
	}
	fmt.Fprintf(b, "> %s: %s\n", kind, blk.Content)
	if blk.Caption != "" {
		fmt.Fprintf(b, "> %s\n", caption)
	}
	b.WriteString("\n")
}

func writeQuiz(b *strings.Builder, blk document.Block) {
	fmt.Fprintf(b, "**Quiz:** %s\n\n", blk.Content)
	for i, opt := range blk.Options {
		marker := " "
		if i == blk.CorrectIndex {
			marker = "x"
		}
		fmt.Fprintf(b, "- [%s] %s\n", marker, opt)
	}
	b.WriteString("\n")
}

func writeCode(b *strings.Builder, blk document.Block) {
	lang := blk.Language
	if lang == "" {
		lang = "text"
	}
	if blk.Filename != "" {
		fmt.Fprintf(b, "*%s*\n\n", blk.Filename)
	}
	fmt.Fprintf(b, "```%s\n%s\n```\n\n", lang, blk.Content)
}
