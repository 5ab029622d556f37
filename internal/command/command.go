// Package command defines the closed set of actions the model may request,
// validates raw parsed commands against per-command schemas, and executes
// them against the document with defined ordering and isolation guarantees.
package command

import (
	"fmt"

	"github.com/cuba6112/lesson-builder/internal/extract"
)

// Command is one validated action. The set of variants is closed: adding a
// command means adding a type here, a schema entry in registry.go, and a
// case in the executor's dispatch, all checked at compile time.
type Command interface {
	// Name returns the wire name the model used to request this command.
	Name() string
	isCommand()
}

// SetTitle sets the document title. Metadata only.
type SetTitle struct {
	Title string
}

// SetIcon sets the document icon. Metadata only.
type SetIcon struct {
	Icon string
}

// AddText appends a rich-markup content block.
type AddText struct {
	Content string
	// After is the zero-based position of the block to insert after.
	// Negative means append at the end.
	After int
}

// AddHeading appends a heading block.
type AddHeading struct {
	Content string
}

// AddImage appends an image block.
type AddImage struct {
	URL     string
	Caption string
}

// AddVideo appends a video block.
type AddVideo struct {
	URL     string
	Caption string
}

// AddQuiz appends a multiple-choice quiz block.
type AddQuiz struct {
	Question     string
	Options      []string
	CorrectIndex int
}

// AddMarkup appends a raw-markup block.
type AddMarkup struct {
	Content string
}

// AddCode appends a code snippet block.
type AddCode struct {
	Code     string
	Language string
	Filename string
}

// AddComponent appends an interactive-component block.
type AddComponent struct {
	Code string
}

// AddDiagram appends a diagram block.
type AddDiagram struct {
	Definition string
}

// AddFormula appends a formula block.
type AddFormula struct {
	Latex string
}

// UpdateBlock replaces the content of the block at a position.
type UpdateBlock struct {
	Position int
	Content  string
}

// DeleteBlock removes the block at a position.
type DeleteBlock struct {
	Position int
}

func (SetTitle) Name() string     { return "set_title" }
func (SetIcon) Name() string      { return "set_icon" }
func (AddText) Name() string      { return "add_block" }
func (AddHeading) Name() string   { return "add_heading" }
func (AddImage) Name() string     { return "add_image" }
func (AddVideo) Name() string     { return "add_video" }
func (AddQuiz) Name() string      { return "add_quiz" }
func (AddMarkup) Name() string    { return "add_html" }
func (AddCode) Name() string      { return "add_code" }
func (AddComponent) Name() string { return "add_component" }
func (AddDiagram) Name() string   { return "add_diagram" }
func (AddFormula) Name() string   { return "add_formula" }
func (UpdateBlock) Name() string  { return "update_block" }
func (DeleteBlock) Name() string  { return "delete_block" }

func (SetTitle) isCommand()     {}
func (SetIcon) isCommand()      {}
func (AddText) isCommand()      {}
func (AddHeading) isCommand()   {}
func (AddImage) isCommand()     {}
func (AddVideo) isCommand()     {}
func (AddQuiz) isCommand()      {}
func (AddMarkup) isCommand()    {}
func (AddCode) isCommand()      {}
func (AddComponent) isCommand() {}
func (AddDiagram) isCommand()   {}
func (AddFormula) isCommand()   {}
func (UpdateBlock) isCommand()  {}
func (DeleteBlock) isCommand()  {}

// ErrUnknownCommand reports a name absent from the registry.
type ErrUnknownCommand struct {
	CommandName string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command %q", e.CommandName)
}

// ValidationError reports a missing or malformed parameter.
type ValidationError struct {
	CommandName string
	Param       string
	Reason      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: parameter %q %s", e.CommandName, e.Param, e.Reason)
}

// Decode validates a raw parsed command against its schema and returns the
// typed variant. Unknown names and schema violations come back as typed
// errors; the executor converts them into failed results without aborting
// sibling commands.
func Decode(raw extract.RawCommand) (Command, error) {
	p := params(raw.Params)

	switch raw.Name {
	case "set_title":
		title, err := p.str(raw.Name, "title", required)
		if err != nil {
			return nil, err
		}
		return SetTitle{Title: title}, nil

	case "set_icon":
		icon, err := p.str(raw.Name, "icon", required)
		if err != nil {
			return nil, err
		}
		return SetIcon{Icon: icon}, nil

	case "add_block":
		content, err := p.str(raw.Name, "content", required)
		if err != nil {
			return nil, err
		}
		after, err := p.intOr(raw.Name, "after", -1)
		if err != nil {
			return nil, err
		}
		return AddText{Content: content, After: after}, nil

	case "add_heading":
		content, err := p.str(raw.Name, "content", required)
		if err != nil {
			return nil, err
		}
		return AddHeading{Content: content}, nil

	case "add_image":
		url, err := p.str(raw.Name, "url", required)
		if err != nil {
			return nil, err
		}
		caption, err := p.str(raw.Name, "caption", optional)
		if err != nil {
			return nil, err
		}
		return AddImage{URL: url, Caption: caption}, nil

	case "add_video":
		url, err := p.str(raw.Name, "url", required)
		if err != nil {
			return nil, err
		}
		caption, err := p.str(raw.Name, "caption", optional)
		if err != nil {
			return nil, err
		}
		return AddVideo{URL: url, Caption: caption}, nil

	case "add_quiz":
		question, err := p.str(raw.Name, "question", required)
		if err != nil {
			return nil, err
		}
		options, err := p.strSlice(raw.Name, "options")
		if err != nil {
			return nil, err
		}
		if len(options) < 2 {
			return nil, &ValidationError{raw.Name, "options", "needs at least two entries"}
		}
		correct, err := p.intOr(raw.Name, "correct_index", 0)
		if err != nil {
			return nil, err
		}
		if correct < 0 || correct >= len(options) {
			return nil, &ValidationError{raw.Name, "correct_index", "out of range"}
		}
		return AddQuiz{Question: question, Options: options, CorrectIndex: correct}, nil

	case "add_html":
		content, err := p.str(raw.Name, "content", required)
		if err != nil {
			return nil, err
		}
		return AddMarkup{Content: content}, nil

	case "add_code":
		code, err := p.str(raw.Name, "code", required)
		if err != nil {
			return nil, err
		}
		language, err := p.str(raw.Name, "language", required)
		if err != nil {
			return nil, err
		}
		filename, err := p.str(raw.Name, "filename", optional)
		if err != nil {
			return nil, err
		}
		return AddCode{Code: code, Language: language, Filename: filename}, nil

	case "add_component":
		code, err := p.str(raw.Name, "code", required)
		if err != nil {
			return nil, err
		}
		return AddComponent{Code: code}, nil

	case "add_diagram":
		definition, err := p.str(raw.Name, "definition", required)
		if err != nil {
			return nil, err
		}
		return AddDiagram{Definition: definition}, nil

	case "add_formula":
		latex, err := p.str(raw.Name, "latex", required)
		if err != nil {
			return nil, err
		}
		return AddFormula{Latex: latex}, nil

	case "update_block":
		pos, err := p.intRequired(raw.Name, "position")
		if err != nil {
			return nil, err
		}
		content, err := p.str(raw.Name, "content", required)
		if err != nil {
			return nil, err
		}
		return UpdateBlock{Position: pos, Content: content}, nil

	case "delete_block":
		pos, err := p.intRequired(raw.Name, "position")
		if err != nil {
			return nil, err
		}
		return DeleteBlock{Position: pos}, nil
	}

	return nil, &ErrUnknownCommand{CommandName: raw.Name}
}

const (
	required = true
	optional = false
)

// params wraps the raw parameter map with typed accessors. JSON numbers
// arrive as float64; integer parameters reject fractional values.
type params map[string]any

func (p params) str(cmd, key string, req bool) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		if req {
			return "", &ValidationError{cmd, key, "is required"}
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{cmd, key, "must be a string"}
	}
	if req && s == "" {
		return "", &ValidationError{cmd, key, "must not be empty"}
	}
	return s, nil
}

func (p params) intRequired(cmd, key string) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, &ValidationError{cmd, key, "is required"}
	}
	return toInt(cmd, key, v)
}

func (p params) intOr(cmd, key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	return toInt(cmd, key, v)
}

func toInt(cmd, key string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, &ValidationError{cmd, key, "must be an integer"}
		}
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, &ValidationError{cmd, key, "must be an integer"}
}

func (p params) strSlice(cmd, key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, &ValidationError{cmd, key, "is required"}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{cmd, key, "must be a list of strings"}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{cmd, key, "must be a list of strings"}
		}
		out = append(out, s)
	}
	return out, nil
}
