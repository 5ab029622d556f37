// Package ui renders the two-pane terminal surface: conversation on the
// left, live document canvas on the right, input at the bottom. It owns
// no business state; the app layer feeds it snapshots through messages
// and receives user intent through callbacks.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/render"
	"github.com/cuba6112/lesson-builder/internal/session"
)

// Callbacks carry user intent out of the UI loop.
type Callbacks struct {
	OnSubmit      func(message string)
	OnCancel      func()
	OnQuit        func()
	OnUndo        func() bool
	OnRedo        func() bool
	OnListModels  func()
	OnSelectModel func(model string)
}

// Model is the root bubbletea model.
type Model struct {
	chat    viewport.Model
	canvas  viewport.Model
	input   textarea.Model
	spinner spinner.Model
	styles  *Styles

	chatRenderer   *render.Renderer
	canvasRenderer *render.Renderer

	callbacks Callbacks
	modelName string

	turns  []session.Turn
	doc    document.Snapshot
	busy   bool
	notice string

	// Model picker overlay state. Active once a ModelsMsg arrives.
	picking    bool
	models     []string
	modelIndex int

	width  int
	height int
	ready  bool
}

// NewModel builds the TUI seeded with the current conversation and
// document so the first frame is complete.
func NewModel(theme ThemeType, modelName string, turns []session.Turn, doc document.Snapshot, cb Callbacks) *Model {
	styles := NewStyles(theme)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Describe what to add or change…"
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	return &Model{
		input:     ta,
		spinner:   s,
		styles:    styles,
		callbacks: cb,
		modelName: modelName,
		turns:     turns,
		doc:       doc,
	}
}

// Init starts the cursor blink and spinner ticks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles UI events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "ctrl+c":
			if m.callbacks.OnQuit != nil {
				m.callbacks.OnQuit()
			}
			return m, tea.Quit
		case "esc":
			if m.busy && m.callbacks.OnCancel != nil {
				m.callbacks.OnCancel()
			}
		case "ctrl+z":
			if !m.busy && m.callbacks.OnUndo != nil {
				if !m.callbacks.OnUndo() {
					m.notice = m.styles.Help.Render("nothing to undo")
				}
			}
			return m, nil
		case "ctrl+y":
			if !m.busy && m.callbacks.OnRedo != nil {
				if !m.callbacks.OnRedo() {
					m.notice = m.styles.Help.Render("nothing to redo")
				}
			}
			return m, nil
		case "ctrl+p":
			if !m.busy && m.callbacks.OnListModels != nil {
				m.notice = m.styles.Help.Render("fetching models…")
				m.callbacks.OnListModels()
			}
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" && m.callbacks.OnSubmit != nil {
				m.callbacks.OnSubmit(text)
				m.busy = true
				m.notice = ""
				m.input.Reset()
			}
			return m, nil
		}

	case TurnsMsg:
		m.turns = msg
		m.refreshChat()

	case DocumentMsg:
		m.doc = document.Snapshot(msg)
		m.refreshCanvas()

	case ResponseDoneMsg:
		m.busy = false

	case ModelsMsg:
		if len(msg) == 0 {
			m.notice = m.styles.Help.Render("no models available")
			break
		}
		m.models = msg
		m.modelIndex = 0
		for i, name := range msg {
			if name == m.modelName {
				m.modelIndex = i
			}
		}
		m.picking = true
		m.notice = ""

	case ErrorMsg:
		m.notice = m.styles.ErrorText.Render(fmt.Sprintf("error: %v", error(msg)))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	m.canvas, cmd = m.canvas.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// updatePicker handles keys while the model picker is open. Input does
// not reach the textarea until the picker closes.
func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.modelIndex > 0 {
			m.modelIndex--
		}
	case "down", "j":
		if m.modelIndex < len(m.models)-1 {
			m.modelIndex++
		}
	case "enter":
		selected := m.models[m.modelIndex]
		if m.callbacks.OnSelectModel != nil {
			m.callbacks.OnSelectModel(selected)
		}
		m.modelName = selected
		m.picking = false
		m.notice = m.styles.Help.Render("model: " + selected)
	case "esc", "ctrl+p":
		m.picking = false
	case "ctrl+c":
		if m.callbacks.OnQuit != nil {
			m.callbacks.OnQuit()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	paneWidth := (width - 6) / 2
	paneHeight := height - m.input.Height() - 5
	if paneWidth < 20 {
		paneWidth = 20
	}
	if paneHeight < 5 {
		paneHeight = 5
	}

	if !m.ready {
		m.chat = viewport.New(paneWidth, paneHeight)
		m.canvas = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.chat.Width = paneWidth
		m.chat.Height = paneHeight
		m.canvas.Width = paneWidth
		m.canvas.Height = paneHeight
	}
	m.input.SetWidth(width - 4)

	// Renderer wrap width tracks the pane, so resizes rebuild them.
	if r, err := render.New(paneWidth - 2); err == nil {
		m.chatRenderer = r
	}
	if r, err := render.New(paneWidth - 2); err == nil {
		m.canvasRenderer = r
	}

	m.refreshChat()
	m.refreshCanvas()
}

func (m *Model) refreshChat() {
	if !m.ready {
		return
	}
	m.chat.SetContent(m.renderTurns())
	m.chat.GotoBottom()
}

func (m *Model) refreshCanvas() {
	if !m.ready {
		return
	}
	md := render.DocumentMarkdown(m.doc)
	m.canvas.SetContent(m.canvasRenderer.Markdown(md))
}

func (m *Model) renderTurns() string {
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case t.Role == session.RoleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.UserText.Render(t.Content))
			b.WriteString("\n")
		case t.IsStatus:
			b.WriteString(m.styles.Status.Render(m.spinner.View() + " " + t.Content))
			b.WriteString("\n")
		default:
			b.WriteString(m.chatRenderer.Markdown(t.Content))
			b.WriteString("\n")
			b.WriteString(m.renderResults(t))
		}
	}
	return b.String()
}

func (m *Model) renderResults(t session.Turn) string {
	if len(t.Results) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range t.Results {
		if r.Success {
			b.WriteString(m.styles.ResultOK.Render("  ✓ " + r.Command))
		} else {
			b.WriteString(m.styles.ResultFail.Render(fmt.Sprintf("  ✗ %s: %s", r.Command, r.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the full frame.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	title := m.doc.Title
	if title == "" {
		title = "Untitled lesson"
	}
	header := m.styles.Header.Render("📘 "+title) + "  " +
		m.styles.HeaderModel.Render(m.modelName)
	if m.busy {
		header += "  " + m.spinner.View()
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.ChatPane.Render(m.chat.View()),
		m.styles.CanvasPane.Render(m.canvas.View()),
	)

	help := m.styles.Help.Render("enter send · esc cancel · ctrl+z undo · ctrl+y redo · ctrl+p model · ctrl+c quit")
	if m.notice != "" {
		help = m.notice
	}
	if m.picking {
		help = m.renderPicker()
	}

	return strings.Join([]string{header, panes, m.input.View(), help}, "\n")
}

func (m Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.styles.Help.Render("select model: ↑/↓ move, enter confirm, esc close"))
	for i, name := range m.models {
		b.WriteString("\n")
		if i == m.modelIndex {
			b.WriteString(m.styles.UserLabel.Render("› " + name))
		} else {
			b.WriteString("  " + name)
		}
	}
	return b.String()
}
