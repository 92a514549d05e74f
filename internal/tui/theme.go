package tui

import (
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/app"
)

// Styles are the rendered styles of one theme.
type Styles struct {
	Page      lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Input     lipgloss.Style
	Focused   lipgloss.Style
	Selected  lipgloss.Style
	Row       lipgloss.Style
	Muted     lipgloss.Style
	Info      lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	StatusBar lipgloss.Style
}

type palette struct {
	Primary lipgloss.Color
	Text    lipgloss.Color
	TextDim lipgloss.Color
	Bg      lipgloss.Color
	BgBar   lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color
}

var (
	darkPalette = palette{
		Primary: lipgloss.Color("#7C3AED"),
		Text:    lipgloss.Color("#E5E7EB"),
		TextDim: lipgloss.Color("#9CA3AF"),
		Bg:      lipgloss.Color("#1F2937"),
		BgBar:   lipgloss.Color("#111827"),
		Border:  lipgloss.Color("#374151"),
		Success: lipgloss.Color("#10B981"),
		Warning: lipgloss.Color("#F59E0B"),
		Danger:  lipgloss.Color("#EF4444"),
	}
	lightPalette = palette{
		Primary: lipgloss.Color("#6D28D9"),
		Text:    lipgloss.Color("#111827"),
		TextDim: lipgloss.Color("#6B7280"),
		Bg:      lipgloss.Color("#F9FAFB"),
		BgBar:   lipgloss.Color("#E5E7EB"),
		Border:  lipgloss.Color("#D1D5DB"),
		Success: lipgloss.Color("#047857"),
		Warning: lipgloss.Color("#B45309"),
		Danger:  lipgloss.Color("#B91C1C"),
	}
)

// StylesFor returns the styles of theme t.
func StylesFor(t app.Theme) Styles {
	p := darkPalette
	if t == app.ThemeLight {
		p = lightPalette
	}

	return Styles{
		Page: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Bg).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(p.TextDim),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Foreground(p.Text).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(p.Primary).
			PaddingLeft(1).
			Bold(true),
		Row: lipgloss.NewStyle().
			Foreground(p.Text).
			PaddingLeft(2),
		Muted: lipgloss.NewStyle().
			Foreground(p.TextDim),
		Info: lipgloss.NewStyle().
			Foreground(p.Success),
		Warning: lipgloss.NewStyle().
			Foreground(p.Warning),
		Error: lipgloss.NewStyle().
			Foreground(p.Danger).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.TextDim).
			Background(p.BgBar),
	}
}

// Notice renders a notice in the style of its kind.
func (s Styles) Notice(n app.Notice) string {
	switch n.Kind {
	case app.NoticeError:
		return s.Error.Render(n.Text)
	case app.NoticeValidation:
		return s.Warning.Render(n.Text)
	default:
		return s.Info.Render(n.Text)
	}
}
