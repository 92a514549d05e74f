package app

// Snapshot is the persisted per-user state: form binding, form fields,
// theme and undelivered notices. The task collection is not part of it;
// it is re-fetched.
type Snapshot struct {
	EditID  int64    `json:"edit_id,omitempty"`
	Form    Form     `json:"form"`
	Theme   Theme    `json:"theme"`
	Notices []Notice `json:"notices,omitempty"`
}

// Snapshot captures the current state. Pending notices in the default
// queue are included but not drained.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Snapshot{Form: a.form, Theme: a.theme, Notices: a.notices.Pending()}
	if id, ok := EditingID(a.mode); ok {
		s.EditID = id
	}
	return s
}

// Restore replaces the current state with s.
func (a *App) Restore(s Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form = s.Form
	a.mode = CreateMode{}
	if s.EditID != 0 {
		a.mode = EditMode{ID: s.EditID}
	}
	a.theme = s.Theme
	if a.theme != ThemeLight {
		a.theme = ThemeDark
	}
	a.notices.Drain()
	for _, n := range s.Notices {
		a.notices.Notify(n)
	}
}
