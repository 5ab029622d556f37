package command

import (
	"fmt"
	"strings"
)

// ParamSpec describes one parameter of a command schema.
type ParamSpec struct {
	Name     string
	Type     string // "string", "int", "string list"
	Required bool
	Desc     string
}

// Spec describes one command: its wire name, schema, and effect. The table
// is what gets exposed to the model as its action vocabulary.
type Spec struct {
	Name   string
	Params []ParamSpec
	Effect string
}

// parallelSafe is the explicit allow-list of commands that provably never
// touch the block collection and may therefore run concurrently with each
// other. This is a hand-maintained, auditable table on purpose: a wrong
// entry here is a write race on the blocks, so additions require review.
// Everything not listed is order-dependent and runs serially.
var parallelSafe = map[string]bool{
	"set_title": true,
	"set_icon":  true,
}

// IsParallelSafe reports whether the named command may run in the
// concurrent metadata batch.
func IsParallelSafe(name string) bool {
	return parallelSafe[name]
}

// Specs returns the full command schema table in a stable order.
func Specs() []Spec {
	return []Spec{
		{
			Name:   "set_title",
			Params: []ParamSpec{{"title", "string", true, "new document title"}},
			Effect: "Set the lesson title.",
		},
		{
			Name:   "set_icon",
			Params: []ParamSpec{{"icon", "string", true, "an emoji"}},
			Effect: "Set the lesson icon.",
		},
		{
			Name: "add_block",
			Params: []ParamSpec{
				{"content", "string", true, "markdown content"},
				{"after", "int", false, "position to insert after; omit to append"},
			},
			Effect: "Add a rich text content block.",
		},
		{
			Name:   "add_heading",
			Params: []ParamSpec{{"content", "string", true, "heading text"}},
			Effect: "Add a section heading block.",
		},
		{
			Name: "add_image",
			Params: []ParamSpec{
				{"url", "string", true, "image URL"},
				{"caption", "string", false, "caption shown under the image"},
			},
			Effect: "Add an image block.",
		},
		{
			Name: "add_video",
			Params: []ParamSpec{
				{"url", "string", true, "video URL"},
				{"caption", "string", false, "caption shown under the video"},
			},
			Effect: "Add a video block.",
		},
		{
			Name: "add_quiz",
			Params: []ParamSpec{
				{"question", "string", true, "the question text"},
				{"options", "string list", true, "answer choices, at least two"},
				{"correct_index", "int", false, "zero-based index of the right answer"},
			},
			Effect: "Add a multiple-choice quiz block.",
		},
		{
			Name:   "add_html",
			Params: []ParamSpec{{"content", "string", true, "raw HTML markup"}},
			Effect: "Add a raw markup block.",
		},
		{
			Name: "add_code",
			Params: []ParamSpec{
				{"code", "string", true, "source code"},
				{"language", "string", true, "language identifier, e.g. python"},
				{"filename", "string", false, "display filename"},
			},
			Effect: "Add a code snippet block.",
		},
		{
			Name:   "add_component",
			Params: []ParamSpec{{"code", "string", true, "self-contained HTML/JS component"}},
			Effect: "Add an interactive component block.",
		},
		{
			Name:   "add_diagram",
			Params: []ParamSpec{{"definition", "string", true, "mermaid diagram definition"}},
			Effect: "Add a diagram block.",
		},
		{
			Name:   "add_formula",
			Params: []ParamSpec{{"latex", "string", true, "LaTeX formula"}},
			Effect: "Add a formula block.",
		},
		{
			Name: "update_block",
			Params: []ParamSpec{
				{"position", "int", true, "zero-based block position"},
				{"content", "string", true, "replacement content"},
			},
			Effect: "Replace the content of an existing block.",
		},
		{
			Name:   "delete_block",
			Params: []ParamSpec{{"position", "int", true, "zero-based block position"}},
			Effect: "Delete the block at a position.",
		},
	}
}

// PromptTable renders the schema table as the action-vocabulary section of
// the system prompt.
func PromptTable() string {
	var sb strings.Builder
	for _, spec := range Specs() {
		sb.WriteString("- ")
		sb.WriteString(spec.Name)
		sb.WriteString("(")
		for i, p := range spec.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name)
			if !p.Required {
				sb.WriteString("?")
			}
			sb.WriteString(": ")
			sb.WriteString(p.Type)
		}
		sb.WriteString("): ")
		sb.WriteString(spec.Effect)
		if len(spec.Params) > 0 {
			for _, p := range spec.Params {
				if p.Desc == "" {
					continue
				}
				sb.WriteString(fmt.Sprintf("\n    %s: %s", p.Name, p.Desc))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
