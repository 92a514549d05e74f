package app

import "strconv"

// Mode is the form's binding: CreateMode or EditMode.
type Mode interface {
	isMode()
	String() string
}

// CreateMode means the form creates a new task on submit.
type CreateMode struct{}

// EditMode means the form updates the task with ID on submit.
type EditMode struct {
	ID int64
}

func (CreateMode) isMode() {}
func (EditMode) isMode() {}

func (CreateMode) String() string { return "create" }
func (m EditMode) String() string { return "editing(" + strconv.FormatInt(m.ID, 10) + ")" }

// EditingID returns the bound task id, if any.
func EditingID(m Mode) (int64, bool) {
	if e, ok := m.(EditMode); ok {
		return e.ID, true
	}
	return 0, false
}
