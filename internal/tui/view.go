package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/app"
	"taskboard/internal/gate"
)

const notLoggedIn = "Not logged in. Run: taskboard login"

func (m Model) View() string {
	switch m.state {
	case gate.StateUnknown:
		return ""
	case gate.StateAbsent:
		return m.styles.Page.Render(
			m.styles.Error.Render(notLoggedIn) + "\n\n" + m.styles.Muted.Render("q quit"))
	}

	var b strings.Builder
	_, editing := app.EditingID(m.app.Mode())

	heading := "Task Manager"
	if editing {
		heading = "Edit Task"
	}
	top := m.styles.Title.Render(heading)
	right := m.styles.Muted.Render(m.user.Email + "  " + m.app.Theme().ToggleLabel() + " (t)")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, top, "   ", right))
	b.WriteString("\n\n")

	b.WriteString(m.renderForm(editing))
	b.WriteString("\n")

	for _, n := range m.notices {
		b.WriteString(m.styles.Notice(n) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return m.styles.Page.Render(b.String())
}

func (m Model) renderForm(editing bool) string {
	field := func(f focus, view string) string {
		if m.focus == f {
			return m.styles.Focused.Render(view)
		}
		return m.styles.Input.Render(view)
	}

	parts := []string{
		field(focusTitle, m.title.View()),
		field(focusDescription, m.description.View()),
	}

	form := m.app.Form()
	if form.ImagePreview != "" {
		parts = append(parts, m.styles.Label.Render("Image: ")+form.ImagePreview)
	}
	if form.VideoPreview != "" {
		parts = append(parts, m.styles.Label.Render("Video: ")+form.VideoPreview)
	}
	if m.focus == focusPath {
		parts = append(parts, field(focusPath, m.path.View()))
	}

	action := "Add Task"
	if editing {
		action = "Update Task"
	}
	parts = append(parts, m.styles.Muted.Render("ctrl+s "+action+" · esc cancel · tab next"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderList() string {
	tasks := m.app.Tasks()
	if len(tasks) == 0 {
		return m.styles.Muted.Render("No tasks yet.")
	}

	rows := make([]string, 0, len(tasks))
	for i, t := range tasks {
		line := t.Title + "\n" + m.styles.Muted.Render(t.Description)
		var media []string
		if t.ImageURL != "" {
			media = append(media, "image: "+t.ImageURL)
		}
		if t.VideoURL != "" {
			media = append(media, "video: "+t.VideoURL)
		}
		if len(media) > 0 {
			line += "\n" + m.styles.Muted.Render(strings.Join(media, "  "))
		}

		style := m.styles.Row
		if i == m.cursor && m.focus == focusList {
			style = m.styles.Selected
		}
		rows = append(rows, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf("%d tasks", len(m.app.Tasks()))
	if m.app.Uploading() {
		status = "Uploading..."
	} else if m.pending > 0 {
		status = "Saving..."
	}
	help := "j/k move · e edit · d delete · n new · i/v attach · r reload · q quit"
	bar := " " + status + " · " + help + " "
	if m.width > 0 {
		return m.styles.StatusBar.Width(m.width - 4).Render(bar)
	}
	return m.styles.StatusBar.Render(bar)
}
