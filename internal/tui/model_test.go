package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/app"
	"taskboard/internal/gate"
	"taskboard/internal/testutil"
)

// feed runs cmd and applies the messages it produces until none remain.
func feed(m Model, cmd tea.Cmd) Model {
	for cmd != nil {
		msg := cmd()
		switch msg := msg.(type) {
		case nil, tea.QuitMsg:
			return m
		case tea.BatchMsg:
			for _, c := range msg {
				m = feed(m, c)
			}
			return m
		}
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = feed(next.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func start(t *testing.T, fake *testutil.FakeService) Model {
	t.Helper()
	m := New(context.Background(), fake, nil)
	t.Cleanup(m.Gate().Stop)
	return feed(m, m.Init())
}

func hasNotice(m Model, text string) bool {
	for _, n := range m.notices {
		if n.Text == text {
			return true
		}
	}
	return false
}

func TestSessionGate(t *testing.T) {
	m := New(context.Background(), testutil.NewSignedInFakeService(), nil)
	if m.View() != "" {
		t.Error("expected nothing rendered before the session check")
	}

	m = start(t, testutil.NewFakeService())
	if m.state != gate.StateAbsent {
		t.Fatalf("expected absent, got %v", m.state)
	}
	if !strings.Contains(m.View(), notLoggedIn) {
		t.Error("expected login hint")
	}
	if _, cmd := m.Update(runes("q")); cmd == nil {
		t.Error("expected q to quit")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit message")
	}
}

func TestLoadsTasksOnStart(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.AddTask("Buy milk", "2%")
	fake.AddTask("Walk", "dog")

	m := start(t, fake)
	if m.state != gate.StatePresent {
		t.Fatalf("expected present, got %v", m.state)
	}
	view := m.View()
	for _, want := range []string{"Task Manager", "Buy milk", "Walk", "user@example.com"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Index(view, "Walk") > strings.Index(view, "Buy milk") {
		t.Error("expected newest task first")
	}
}

func TestLoadFailureShowsNotice(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.ListErr = errors.New("boom")

	m := start(t, fake)
	if !hasNotice(m, app.MsgLoadFailed) {
		t.Errorf("expected load notice, got %+v", m.notices)
	}
	if strings.Contains(m.View(), "boom") {
		t.Error("cause must not reach the user")
	}
}

func TestCreateTask(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	m := start(t, fake)

	m = press(m, runes("n"), runes("Buy milk quickly"), keyTab, runes("2%"), keySave)

	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk quickly" || tasks[0].Description != "2%" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if !hasNotice(m, app.MsgTaskAdded) {
		t.Error("expected added notice")
	}
	if m.title.Value() != "" || m.description.Value() != "" {
		t.Error("expected inputs cleared")
	}
	if m.focus != focusList || m.pending != 0 {
		t.Errorf("expected list focus and nothing pending, got %v %d", m.focus, m.pending)
	}
}

func TestSubmitValidation(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	m := start(t, fake)

	m = press(m, runes("n"), runes("only title"), keySave)
	if fake.Calls("InsertTask") != 0 {
		t.Error("expected no insert")
	}
	if !hasNotice(m, app.MsgFillRequired) {
		t.Error("expected validation notice")
	}
	if m.title.Value() != "only title" || m.focus != focusTitle {
		t.Error("expected form kept")
	}
}

func TestEditTask(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	older := fake.AddTask("Buy milk", "2%")
	fake.AddTask("Walk", "dog")
	m := start(t, fake)

	m = press(m, runes("j"), runes("e"))
	if id, ok := app.EditingID(m.app.Mode()); !ok || id != older.ID {
		t.Fatalf("expected editing %d, got %v", older.ID, m.app.Mode())
	}
	if m.title.Value() != "Buy milk" || m.description.Value() != "2%" {
		t.Fatalf("expected inputs filled, got %q %q", m.title.Value(), m.description.Value())
	}
	if !strings.Contains(m.View(), "Edit Task") {
		t.Error("expected edit heading")
	}

	m.title.SetValue("Buy oat milk")
	m = press(m, keySave)

	tasks := fake.Tasks()
	if len(tasks) != 2 || tasks[1].ID != older.ID || tasks[1].Title != "Buy oat milk" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if !hasNotice(m, app.MsgTaskUpdated) {
		t.Error("expected updated notice")
	}
	if _, ok := app.EditingID(m.app.Mode()); ok {
		t.Error("expected create mode after update")
	}
}

func TestCancelEdit(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.AddTask("a", "b")
	m := start(t, fake)

	m = press(m, runes("e"), keyEsc)
	if _, ok := app.EditingID(m.app.Mode()); ok {
		t.Error("expected create mode")
	}
	if m.title.Value() != "" || m.focus != focusList {
		t.Error("expected empty form and list focus")
	}
	if fake.Calls("UpdateTask") != 0 {
		t.Error("expected no update")
	}
}

func TestKeysInFormAreText(t *testing.T) {
	m := start(t, testutil.NewSignedInFakeService())
	next, cmd := press(m, runes("n")).Update(runes("q"))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q in a text field must not quit")
		}
	}
	if got := next.(Model).title.Value(); got != "q" {
		t.Errorf("expected typed text, got %q", got)
	}
}

func TestDeleteTask(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.AddTask("a", "b")
	fake.AddTask("c", "d")
	m := start(t, fake)

	m = press(m, runes("j"), runes("d"))
	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "c" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if !hasNotice(m, app.MsgTaskDeleted) {
		t.Error("expected deleted notice")
	}
	if m.cursor != 0 {
		t.Errorf("expected cursor clamped, got %d", m.cursor)
	}
}

func TestDeleteTaskBeingEdited(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.AddTask("a", "b")
	m := start(t, fake)

	m = press(m, runes("e"), keyTab, keyTab)
	if m.focus != focusList {
		t.Fatalf("expected list focus, got %v", m.focus)
	}
	m = press(m, runes("d"))
	if _, ok := app.EditingID(m.app.Mode()); ok {
		t.Error("expected create mode")
	}
	if m.title.Value() != "" {
		t.Error("expected inputs cleared")
	}
}

func TestDeleteFailure(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	fake.AddTask("a", "b")
	fake.DeleteErr = errors.New("boom")
	m := start(t, fake)

	m = press(m, runes("d"))
	if !hasNotice(m, app.MsgDeleteFailed) || len(fake.Tasks()) != 1 {
		t.Error("expected delete failure notice and the task kept")
	}
}

func TestToggleTheme(t *testing.T) {
	m := start(t, testutil.NewSignedInFakeService())
	m = press(m, runes("t"))
	if m.app.Theme() != app.ThemeLight {
		t.Errorf("expected light theme, got %s", m.app.Theme())
	}
	if !strings.Contains(m.View(), app.ThemeLight.ToggleLabel()) {
		t.Error("expected toggle label for the light theme")
	}
}

func TestAttachImage(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	m := start(t, fake)

	dir := t.TempDir()
	png := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(png, []byte("png-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	m = press(m, runes("i"))
	if m.focus != focusPath {
		t.Fatalf("expected path prompt, got %v", m.focus)
	}
	m = press(m, runes(png), keyEnter)

	objects := fake.Objects()
	if len(objects) != 1 || !strings.HasPrefix(objects[0], "images/") {
		t.Fatalf("expected one image object, got %v", objects)
	}
	if got := m.app.Form().ImagePreview; got != testutil.PublicBase+objects[0] {
		t.Errorf("expected preview url, got %q", got)
	}
	if m.focus != focusList || m.pending != 0 {
		t.Error("expected list focus and nothing pending")
	}
}

func TestAttachFailures(t *testing.T) {
	fake := testutil.NewSignedInFakeService()
	m := start(t, fake)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	m = press(m, runes("v"), runes(txt), keyEnter)
	if !hasNotice(m, app.MsgUploadFailed) {
		t.Error("expected upload notice for wrong type")
	}

	m.notices = nil
	m = press(m, runes("i"), runes(filepath.Join(t.TempDir(), "missing.png")), keyEnter)
	if !hasNotice(m, app.MsgUploadFailed) {
		t.Error("expected upload notice for missing file")
	}
	if len(fake.Objects()) != 0 || m.app.Form().ImageURL != "" {
		t.Error("expected nothing attached")
	}
}
