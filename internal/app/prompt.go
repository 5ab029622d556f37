package app

import (
	"fmt"
	"strings"

	"github.com/cuba6112/lesson-builder/internal/command"
	"github.com/cuba6112/lesson-builder/internal/document"
)

// systemPrompt instructs the model to answer with the single-object JSON
// contract the parser expects, lists the command vocabulary, and
// describes the document it is editing.
func systemPrompt(snap document.Snapshot) string {
	var b strings.Builder

	b.WriteString(`You are a lesson-building assistant. You edit a block-based lesson document by issuing commands.

Always respond with exactly one JSON object, optionally inside a fenced code block:

{
  "reasoning": "brief thinking about what to do",
  "commands": [{"name": "command_name", "params": {...}}],
  "message": "short friendly note shown to the user"
}

Rules:
- Emit every command needed for the request in one reply; commands run in the order listed.
- Block positions are zero-based indexes into the current document.
- If the request needs no document change, reply with an empty commands list and answer in "message".

Available commands:

`)
	b.WriteString(command.PromptTable())

	b.WriteString("\nCurrent document:\n")
	fmt.Fprintf(&b, "- title: %q, icon: %q, blocks: %d\n", snap.Title, snap.Icon, len(snap.Blocks))
	for i, blk := range snap.Blocks {
		fmt.Fprintf(&b, "- [%d] %s: %s\n", i, blk.Type, previewContent(blk.Content))
	}
	return b.String()
}

func previewContent(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	if s == "" {
		return "(empty)"
	}
	return s
}
