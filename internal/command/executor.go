package command

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/extract"
	"github.com/cuba6112/lesson-builder/internal/logging"
)

// Result records the outcome of one command. Results are write-once: they
// are created per turn as an audit trail and never mutated afterwards.
type Result struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

// Mutator is the document mutation surface the executor writes through.
// document.Store satisfies it.
type Mutator interface {
	SetTitle(title string)
	SetIcon(icon string)
	AddBlock(block document.Block, afterID string) string
	UpdateBlock(id, field string, value any)
	DeleteBlock(id string)
	BlockAt(pos int) (document.Block, bool)
	Len() int
}

// Handler provides callbacks for execution events.
type Handler struct {
	// OnCommandStart is called before a command's handler runs.
	OnCommandStart func(name string)
	// OnCommandDone is called with the result of every finished command.
	OnCommandDone func(result Result)
}

// Executor validates and applies parsed commands against a document.
//
// Commands split into two groups. Metadata commands in the parallel-safe
// table run concurrently and are joined in full before anything else.
// Every remaining command mutates the block collection and runs strictly in
// parsed order, so position-relative operations observe a predictable
// document. Failures never cross command boundaries.
type Executor struct {
	doc     Mutator
	handler Handler
}

// NewExecutor creates an executor bound to a document.
func NewExecutor(doc Mutator) *Executor {
	return &Executor{doc: doc}
}

// SetHandler installs execution-event callbacks.
func (e *Executor) SetHandler(h Handler) {
	e.handler = h
}

// Execute runs the parsed command list and returns one result per command
// that was dispatched: parallel-safe results first (in parsed relative
// order), then order-dependent results in parsed order.
//
// Cancellation is observed before the parallel batch is launched and before
// each order-dependent command. Cancelling stops issuing new commands; work
// already applied stays applied.
func (e *Executor) Execute(ctx context.Context, raws []extract.RawCommand) []Result {
	var safe, ordered []extract.RawCommand
	for _, raw := range raws {
		if IsParallelSafe(raw.Name) {
			safe = append(safe, raw)
		} else {
			ordered = append(ordered, raw)
		}
	}

	results := make([]Result, 0, len(raws))

	// Metadata batch: concurrent, joined before any block mutation starts.
	if len(safe) > 0 {
		if ctx.Err() != nil {
			logging.Info("execution cancelled before metadata batch",
				"skipped", len(raws))
			return results
		}

		batch := make([]Result, len(safe))
		g := new(errgroup.Group)
		for i, raw := range safe {
			g.Go(func() error {
				batch[i] = e.runOne(raw)
				return nil
			})
		}
		_ = g.Wait() // individual failures live in batch entries
		results = append(results, batch...)
	}

	for _, raw := range ordered {
		if ctx.Err() != nil {
			logging.Info("execution cancelled, skipping remaining commands",
				"completed", len(results), "total", len(raws))
			break
		}
		results = append(results, e.runOne(raw))
	}

	return results
}

// runOne decodes and applies a single command, isolating every failure mode
// (unknown name, validation, handler panic) into the result.
func (e *Executor) runOne(raw extract.RawCommand) (res Result) {
	if e.handler.OnCommandStart != nil {
		e.handler.OnCommandStart(raw.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Command: raw.Name, Success: false, Detail: fmt.Sprintf("internal error: %v", r)}
			logging.Error("command handler panicked", "command", raw.Name, "panic", r)
		}
		if e.handler.OnCommandDone != nil {
			e.handler.OnCommandDone(res)
		}
	}()

	cmd, err := Decode(raw)
	if err != nil {
		logging.Debug("command rejected", "command", raw.Name, "error", err)
		detail := err.Error()
		var unknown *ErrUnknownCommand
		if errors.As(err, &unknown) {
			detail = "unknown command"
		}
		return Result{Command: raw.Name, Success: false, Detail: detail}
	}

	return e.apply(cmd)
}

// apply dispatches on the command variant. The switch is exhaustive over
// the closed set.
func (e *Executor) apply(cmd Command) Result {
	switch c := cmd.(type) {
	case SetTitle:
		e.doc.SetTitle(c.Title)
		return ok(cmd, fmt.Sprintf("title set to %q", c.Title))

	case SetIcon:
		e.doc.SetIcon(c.Icon)
		return ok(cmd, "icon updated")

	case AddText:
		afterID := ""
		if c.After >= 0 {
			if anchor, found := e.doc.BlockAt(c.After); found {
				afterID = anchor.ID
			}
		}
		e.doc.AddBlock(document.NewBlock(document.BlockText, c.Content), afterID)
		return ok(cmd, "content block added")

	case AddHeading:
		e.doc.AddBlock(document.NewBlock(document.BlockHeading, c.Content), "")
		return ok(cmd, "heading added")

	case AddImage:
		b := document.NewBlock(document.BlockImage, c.URL)
		b.Caption = c.Caption
		e.doc.AddBlock(b, "")
		return ok(cmd, "image block added")

	case AddVideo:
		b := document.NewBlock(document.BlockVideo, c.URL)
		b.Caption = c.Caption
		e.doc.AddBlock(b, "")
		return ok(cmd, "video block added")

	case AddQuiz:
		b := document.NewBlock(document.BlockQuiz, c.Question)
		b.Options = c.Options
		b.CorrectIndex = c.CorrectIndex
		e.doc.AddBlock(b, "")
		return ok(cmd, "quiz added")

	case AddMarkup:
		b := document.NewBlock(document.BlockMarkup, c.Content)
		b.ShowPreview = true
		e.doc.AddBlock(b, "")
		return ok(cmd, "markup block added")

	case AddCode:
		b := document.NewBlock(document.BlockCode, c.Code)
		b.Language = c.Language
		b.Filename = c.Filename
		e.doc.AddBlock(b, "")
		return ok(cmd, fmt.Sprintf("code block added (%s)", c.Language))

	case AddComponent:
		b := document.NewBlock(document.BlockComponent, c.Code)
		b.ShowPreview = true
		e.doc.AddBlock(b, "")
		return ok(cmd, "interactive component added")

	case AddDiagram:
		e.doc.AddBlock(document.NewBlock(document.BlockDiagram, c.Definition), "")
		return ok(cmd, "diagram added")

	case AddFormula:
		e.doc.AddBlock(document.NewBlock(document.BlockFormula, c.Latex), "")
		return ok(cmd, "formula added")

	case UpdateBlock:
		target, found := e.doc.BlockAt(c.Position)
		if !found {
			return fail(cmd, fmt.Sprintf("no block at position %d", c.Position))
		}
		e.doc.UpdateBlock(target.ID, "content", c.Content)
		return ok(cmd, fmt.Sprintf("block %d updated", c.Position))

	case DeleteBlock:
		target, found := e.doc.BlockAt(c.Position)
		if !found {
			return fail(cmd, fmt.Sprintf("no block at position %d", c.Position))
		}
		e.doc.DeleteBlock(target.ID)
		return ok(cmd, fmt.Sprintf("block %d deleted", c.Position))
	}

	return fail(cmd, "command not dispatched")
}

func ok(cmd Command, detail string) Result {
	return Result{Command: cmd.Name(), Success: true, Detail: detail}
}

func fail(cmd Command, detail string) Result {
	return Result{Command: cmd.Name(), Success: false, Detail: detail}
}
