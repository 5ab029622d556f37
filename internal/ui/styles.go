package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ThemeType selects a color palette.
type ThemeType string

const (
	ThemeDark  ThemeType = "dark"
	ThemeLight ThemeType = "light"
)

// colorScheme is the palette behind a theme.
type colorScheme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Border  lipgloss.Color
	Accent  lipgloss.Color
}

func schemeFor(theme ThemeType) colorScheme {
	switch theme {
	case ThemeLight:
		return colorScheme{
			Primary: lipgloss.Color("#7C3AED"),
			Success: lipgloss.Color("#059669"),
			Error:   lipgloss.Color("#DC2626"),
			Muted:   lipgloss.Color("#6B7280"),
			Text:    lipgloss.Color("#1E293B"),
			Border:  lipgloss.Color("#CBD5E1"),
			Accent:  lipgloss.Color("#DB2777"),
		}
	default:
		return colorScheme{
			Primary: lipgloss.Color("#A78BFA"),
			Success: lipgloss.Color("#34D399"),
			Error:   lipgloss.Color("#F87171"),
			Muted:   lipgloss.Color("#9CA3AF"),
			Text:    lipgloss.Color("#F1F5F9"),
			Border:  lipgloss.Color("#1E293B"),
			Accent:  lipgloss.Color("#F472B6"),
		}
	}
}

// Styles holds every lipgloss style the TUI renders with.
type Styles struct {
	Header      lipgloss.Style
	HeaderModel lipgloss.Style
	UserLabel   lipgloss.Style
	UserText    lipgloss.Style
	Status      lipgloss.Style
	ResultOK    lipgloss.Style
	ResultFail  lipgloss.Style
	ErrorText   lipgloss.Style
	Help        lipgloss.Style
	ChatPane    lipgloss.Style
	CanvasPane  lipgloss.Style
	Spinner     lipgloss.Style
}

// NewStyles builds the style set for a theme. Unknown theme names fall
// back to dark.
func NewStyles(theme ThemeType) *Styles {
	c := schemeFor(theme)
	return &Styles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		HeaderModel: lipgloss.NewStyle().Foreground(c.Muted),
		UserLabel:   lipgloss.NewStyle().Bold(true).Foreground(c.Accent),
		UserText:    lipgloss.NewStyle().Foreground(c.Text),
		Status:      lipgloss.NewStyle().Foreground(c.Muted).Italic(true),
		ResultOK:    lipgloss.NewStyle().Foreground(c.Success),
		ResultFail:  lipgloss.NewStyle().Foreground(c.Error),
		ErrorText:   lipgloss.NewStyle().Foreground(c.Error),
		Help:        lipgloss.NewStyle().Foreground(c.Muted),
		ChatPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.Border).
			Padding(0, 1),
		CanvasPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.Border).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(c.Primary),
	}
}
