// Package tui is the terminal frontend, built on bubbletea.
package tui

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/app"
	"taskboard/internal/gate"
	"taskboard/internal/service"
)

// maxNotices is how many recent notices the status area keeps.
const maxNotices = 3

type focus int

const (
	focusList focus = iota
	focusTitle
	focusDescription
	focusPath
)

// --- Tea messages ---

// sessionMsg reports the result of the session check.
type sessionMsg struct {
	state   gate.State
	session *service.Session
}

// loadedMsg follows a refresh of the collection.
type loadedMsg struct{ err error }

// submittedMsg follows a create or update.
type submittedMsg struct{ err error }

// deletedMsg follows a delete.
type deletedMsg struct {
	id  int64
	err error
}

// attachedMsg follows an upload.
type attachedMsg struct {
	cat service.Category
	err error
}

// Model is the terminal UI model.
type Model struct {
	ctx  context.Context
	app  *app.App
	gate *gate.Gate
	log  *log.Logger

	width  int
	height int

	state   gate.State
	user    service.User
	cursor  int
	focus   focus
	pending int

	title       textinput.Model
	description textarea.Model
	path        textinput.Model
	attachCat   service.Category

	notices []app.Notice
	keys    KeyMap
	styles  Styles
}

// New creates the model. Backend calls made by the model use ctx.
func New(ctx context.Context, svc service.Service, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ti := textinput.New()
	ti.Placeholder = "Task Title"
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)

	ta := textarea.New()
	ta.Placeholder = "Task Description"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Cursor.SetMode(cursor.CursorStatic)

	pi := textinput.New()
	pi.Placeholder = "path/to/file"
	pi.Cursor.SetMode(cursor.CursorStatic)

	a := app.New(svc, app.Options{Log: logger})
	return Model{
		ctx:         ctx,
		app:         a,
		gate:        gate.New(svc, logger),
		log:         logger,
		title:       ti,
		description: ta,
		path:        pi,
		keys:        DefaultKeyMap(),
		styles:      StylesFor(a.Theme()),
	}
}

// App returns the application state behind the model.
func (m Model) App() *app.App {
	return m.app
}

// Gate returns the session gate. Stop it when the program exits.
func (m Model) Gate() *gate.Gate {
	return m.gate
}

func (m Model) Init() tea.Cmd {
	return m.checkSession()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case sessionMsg:
		m.state = msg.state
		if msg.session != nil {
			m.user = msg.session.User
		}
		if m.state != gate.StatePresent {
			return m, nil
		}
		return m, m.refresh()

	case loadedMsg:
		m.clampCursor()
		m.collectNotices()
		return m, nil

	case submittedMsg:
		m.pending--
		if msg.err == nil {
			m.syncInputs()
			m.setFocus(focusList)
		}
		m.clampCursor()
		m.collectNotices()
		return m, nil

	case deletedMsg:
		m.pending--
		if _, editing := app.EditingID(m.app.Mode()); !editing {
			m.syncInputs()
		}
		m.clampCursor()
		m.collectNotices()
		return m, nil

	case attachedMsg:
		m.pending--
		m.collectNotices()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.state != gate.StatePresent {
			if key.Matches(msg, m.keys.Quit, m.keys.Cancel) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.focus {
		case focusList:
			return m.updateList(msg)
		case focusPath:
			return m.updatePath(msg)
		default:
			return m.updateForm(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.app.Tasks()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if m.cursor < len(tasks) {
			m.app.Edit(tasks[m.cursor])
			m.syncInputs()
			m.setFocus(focusTitle)
		}
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(tasks) {
			return m, m.delete(tasks[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.New):
		m.app.Cancel()
		m.syncInputs()
		m.setFocus(focusTitle)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Theme):
		m.styles = StylesFor(m.app.ToggleTheme())
	case key.Matches(msg, m.keys.AttachImage):
		m.startAttach(service.CategoryImage)
	case key.Matches(msg, m.keys.AttachVideo):
		m.startAttach(service.CategoryVideo)
	case key.Matches(msg, m.keys.NextField):
		m.setFocus(focusTitle)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.pushText()
		return m, m.submit()
	case key.Matches(msg, m.keys.Cancel):
		m.app.Cancel()
		m.syncInputs()
		m.setFocus(focusList)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		if m.focus == focusTitle {
			m.setFocus(focusDescription)
		} else {
			m.setFocus(focusList)
		}
		m.pushText()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m Model) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.path.SetValue("")
		m.setFocus(focusList)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		p := strings.TrimSpace(m.path.Value())
		m.path.SetValue("")
		m.setFocus(focusList)
		if p == "" {
			return m, nil
		}
		return m, m.attach(m.attachCat, p)
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

// --- commands ---

func (m Model) checkSession() tea.Cmd {
	g, ctx := m.gate, m.ctx
	return func() tea.Msg {
		g.Start(ctx)
		return sessionMsg{state: g.State(), session: g.Session()}
	}
}

func (m Model) refresh() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: a.Refresh(ctx)}
	}
}

func (m *Model) submit() tea.Cmd {
	m.pending++
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return submittedMsg{err: a.Submit(ctx)}
	}
}

func (m *Model) delete(id int64) tea.Cmd {
	m.pending++
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return deletedMsg{id: id, err: a.Delete(ctx, id)}
	}
}

func (m *Model) attach(cat service.Category, path string) tea.Cmd {
	m.pending++
	a, ctx, logger := m.app, m.ctx, m.log
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			logger.Printf("open attachment: %v", err)
			a.Notices().Notify(app.Notice{Kind: app.NoticeError, Text: app.MsgUploadFailed})
			return attachedMsg{cat: cat, err: err}
		}
		defer f.Close()
		return attachedMsg{cat: cat, err: a.Attach(ctx, cat, filepath.Base(path), f)}
	}
}

// --- state helpers ---

func (m *Model) startAttach(cat service.Category) {
	m.attachCat = cat
	m.path.Prompt = string(cat) + ": "
	m.path.SetValue("")
	m.setFocus(focusPath)
}

// setFocus moves keyboard focus. The inputs use a static cursor, so
// focusing returns no blink command.
func (m *Model) setFocus(f focus) {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	m.path.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusDescription:
		m.description.Focus()
	case focusPath:
		m.path.Focus()
	}
}

// pushText copies the inputs into the form.
func (m *Model) pushText() {
	m.app.SetText(m.title.Value(), m.description.Value())
}

// syncInputs copies the form into the inputs.
func (m *Model) syncInputs() {
	f := m.app.Form()
	m.title.SetValue(f.Title)
	m.description.SetValue(f.Description)
}

func (m *Model) clampCursor() {
	n := len(m.app.Tasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) collectNotices() {
	m.notices = append(m.notices, m.app.Notices().Drain()...)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m *Model) relayout() {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	m.title.Width = w
	m.description.SetWidth(w)
	m.path.Width = w
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, svc service.Service, logger *log.Logger) error {
	m := New(ctx, svc, logger)
	defer m.Gate().Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
