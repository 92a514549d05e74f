// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"io"
)

// TaskTable is the remote task table.
// All backends return records newest first (descending id).
type TaskTable interface {
	// ListTasks returns every task, newest first.
	ListTasks(ctx context.Context) ([]Task, error)

	// InsertTask creates a task. ID and CreatedAt are assigned by the backend.
	InsertTask(ctx context.Context, fields TaskFields) (Task, error)

	// UpdateTask replaces the mutable fields of the task with the given id.
	// Returns ErrNotFound if no task has that id.
	UpdateTask(ctx context.Context, id int64, fields TaskFields) (Task, error)

	// DeleteTask removes the task with the given id.
	// Returns ErrNotFound if no task has that id.
	DeleteTask(ctx context.Context, id int64) error
}

// ObjectStore is the remote object storage used for attachments.
type ObjectStore interface {
	// UploadObject stores r at path. Existing objects are not overwritten.
	UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error

	// PublicURL returns the publicly reachable URL of the object at path.
	PublicURL(path string) string
}

// Authenticator is the remote auth provider.
type Authenticator interface {
	// Session returns the current session, or nil if there is none.
	// An expired session is refreshed when possible.
	Session(ctx context.Context) (*Session, error)

	// SignIn authenticates with email and password and stores the session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. The returned session is nil when the
	// provider requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for auth state changes and returns a function
	// that releases the subscription.
	Subscribe(fn func(AuthEvent, *Session)) (unsubscribe func())
}

// Service is everything a frontend needs from the backend.
// Frontends never import backend packages directly.
type Service interface {
	TaskTable
	ObjectStore
	Authenticator
}

// Composite assembles a Service from independently chosen parts.
type Composite struct {
	TaskTable
	ObjectStore
	Authenticator

	// Closer, if set, releases resources held by the parts.
	Closer io.Closer
}

// Close releases resources held by the composed backends.
func (c *Composite) Close() error {
	if c.Closer == nil {
		return nil
	}
	return c.Closer.Close()
}
