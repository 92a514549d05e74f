// Package app is the application core shared by the web, terminal and
// command-line frontends: the task store adapter, the upload adapter and
// the form/edit state machine.
package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"taskboard/internal/service"
)

// Backend is what the core needs from the service.
type Backend interface {
	service.TaskTable
	service.ObjectStore
}

// Options configures an App.
type Options struct {
	// Notifier receives user notices. Defaults to an internal queue
	// available from Notices.
	Notifier Notifier

	// Log is the diagnostic channel. Nil discards.
	Log *log.Logger
}

// App is one user's view of the task board. Methods are safe for concurrent
// use; backend calls run without holding the state lock.
type App struct {
	store    *Store
	uploader *Uploader
	notices  *Notices
	notify   Notifier
	log      *log.Logger

	mu        sync.Mutex
	mode      Mode
	form      Form
	theme     Theme
	uploading int
}

// New creates an App in create mode with an empty form and the dark theme.
func New(backend Backend, opts Options) *App {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &App{
		store:    NewStore(backend, logger),
		uploader: NewUploader(backend, logger),
		notices:  &Notices{},
		log:      logger,
		mode:     CreateMode{},
		theme:    ThemeDark,
	}
	a.notify = opts.Notifier
	if a.notify == nil {
		a.notify = a.notices
	}
	return a
}

// Notices returns the default notice queue. It stays empty when
// Options.Notifier was set.
func (a *App) Notices() *Notices {
	return a.notices
}

// Uploader returns the upload adapter.
func (a *App) Uploader() *Uploader {
	return a.uploader
}

// Refresh re-fetches the collection. A failure keeps the cached
// collection and posts a notice.
func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.store.List(ctx); err != nil {
		a.notify.Notify(Notice{Kind: NoticeError, Text: MsgLoadFailed})
		return err
	}
	return nil
}

// Tasks returns the cached collection, newest first.
func (a *App) Tasks() []service.Task {
	return a.store.Tasks()
}

// Mode returns the current form binding.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Form returns the current form.
func (a *App) Form() Form {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// SetText replaces the title and description being edited.
func (a *App) SetText(title, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.Title = title
	a.form.Description = description
}

// ClearAttachment removes the image or video from the form.
func (a *App) ClearAttachment(cat service.Category) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch cat {
	case service.CategoryImage:
		a.form.ImageURL, a.form.ImagePreview = "", ""
	case service.CategoryVideo:
		a.form.VideoURL, a.form.VideoPreview = "", ""
	}
}

// Edit binds the form to t and fills it, previews included.
func (a *App) Edit(t service.Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = EditMode{ID: t.ID}
	a.form = FormFromTask(t)
}

// EditByID is Edit for a task in the cached collection.
func (a *App) EditByID(id int64) error {
	t, ok := a.store.Find(id)
	if !ok {
		a.notify.Notify(Notice{Kind: NoticeError, Text: MsgUnknownTask})
		return service.ErrNotFound
	}
	a.Edit(t)
	return nil
}

// Cancel returns to create mode with an empty form.
func (a *App) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *App) reset() {
	a.mode = CreateMode{}
	a.form = Form{}
}

// Submit validates the form and creates or updates a task depending on the
// mode. On success the form is reset and the collection refreshed. On
// failure the form and mode are left as they were.
func (a *App) Submit(ctx context.Context) error {
	a.mu.Lock()
	mode, form := a.mode, a.form
	a.mu.Unlock()

	if err := form.Validate(); err != nil {
		a.notify.Notify(Notice{Kind: NoticeValidation, Text: MsgFillRequired})
		return err
	}

	var (
		err error
		msg string
	)
	switch m := mode.(type) {
	case CreateMode:
		_, err = a.store.Create(ctx, form.Fields())
		msg = MsgTaskAdded
	case EditMode:
		_, err = a.store.Update(ctx, m.ID, form.Fields())
		msg = MsgTaskUpdated
	}
	if err != nil {
		a.notify.Notify(Notice{Kind: NoticeError, Text: MsgSaveFailed})
		return err
	}

	a.mu.Lock()
	a.reset()
	a.mu.Unlock()
	a.notify.Notify(Notice{Kind: NoticeInfo, Text: msg})
	_ = a.Refresh(ctx)
	return nil
}

// Delete removes task id and refreshes the collection. Deleting the task
// being edited returns the form to create mode.
func (a *App) Delete(ctx context.Context, id int64) error {
	if err := a.store.Delete(ctx, id); err != nil {
		a.notify.Notify(Notice{Kind: NoticeError, Text: MsgDeleteFailed})
		return err
	}

	a.mu.Lock()
	if editing, ok := EditingID(a.mode); ok && editing == id {
		a.reset()
	}
	a.mu.Unlock()
	a.notify.Notify(Notice{Kind: NoticeInfo, Text: MsgTaskDeleted})
	_ = a.Refresh(ctx)
	return nil
}

// Attach uploads a file and assigns its URL to the form's image or video
// field. On failure the field and preview keep their previous values.
func (a *App) Attach(ctx context.Context, cat service.Category, name string, r io.Reader) error {
	a.mu.Lock()
	a.uploading++
	a.mu.Unlock()

	url, err := a.uploader.Upload(ctx, cat, name, r)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploading--
	if err != nil {
		a.notify.Notify(Notice{Kind: NoticeError, Text: MsgUploadFailed})
		return err
	}
	switch cat {
	case service.CategoryImage:
		a.form.ImageURL, a.form.ImagePreview = url, url
	case service.CategoryVideo:
		a.form.VideoURL, a.form.VideoPreview = url, url
	}
	return nil
}

// Uploading reports whether an upload is in flight.
func (a *App) Uploading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploading > 0
}

// Theme returns the current theme.
func (a *App) Theme() Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// ToggleTheme switches between dark and light.
func (a *App) ToggleTheme() Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.theme = a.theme.Toggle()
	return a.theme
}

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
