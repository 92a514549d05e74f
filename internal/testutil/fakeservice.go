// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"taskboard/internal/service"
)

// PublicBase prefixes FakeService public URLs.
const PublicBase = "https://fake.example/public/"

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu      sync.Mutex
	tasks   []service.Task
	nextID  int64
	objects map[string][]byte
	types   map[string]string
	users   map[string]string // email -> password
	session *service.Session
	calls   map[string]int

	listeners service.Listeners

	// Now stamps created_at. Defaults to a fixed clock advancing one second
	// per insert.
	Now func() time.Time

	// BeforeList, if set, runs at the start of ListTasks (outside the lock).
	BeforeList func(ctx context.Context)

	// Error injection for testing
	ListErr    error
	InsertErr  error
	UpdateErr  error
	DeleteErr  error
	UploadErr  error
	SessionErr error
	SignInErr  error
	SignUpErr  error
	SignOutErr error

	// ConfirmSignUp makes SignUp return no session, as when the provider
	// requires email confirmation.
	ConfirmSignUp bool
}

var _ service.Service = (*FakeService)(nil)

// NewFakeService creates an empty FakeService with no session.
func NewFakeService() *FakeService {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f := &FakeService{
		nextID:  1,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		users:   make(map[string]string),
		calls:   make(map[string]int),
	}
	f.Now = func() time.Time { return base.Add(time.Duration(f.nextID) * time.Second) }
	return f
}

// NewSignedInFakeService creates a FakeService with a present session.
func NewSignedInFakeService() *FakeService {
	f := NewFakeService()
	f.SetSession(&service.Session{
		AccessToken: "token",
		User:        service.User{ID: "u-1", Email: "user@example.com"},
	})
	return f
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title, description string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(service.TaskFields{Title: title, Description: description})
}

// AddUser registers an account for SignIn.
func (f *FakeService) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// SetSession replaces the current session without emitting an event.
func (f *FakeService) SetSession(s *service.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

// Tasks returns a snapshot of stored tasks, newest first.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

// Object returns the stored object bytes and content type.
func (f *FakeService) Object(path string) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	return data, f.types[path], ok
}

// Objects returns the stored object paths, sorted.
func (f *FakeService) Objects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.objects))
	for p := range f.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Calls returns how many times the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Subscribers returns the number of live auth subscriptions.
func (f *FakeService) Subscribers() int {
	return f.listeners.Len()
}

// Emit sends an auth event to subscribers, updating the session.
func (f *FakeService) Emit(ev service.AuthEvent, s *service.Session) {
	f.SetSession(s)
	f.listeners.Emit(ev, s)
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.BeforeList != nil {
		f.BeforeList(ctx)
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked(), nil
}

// InsertTask implements service.Service.
func (f *FakeService) InsertTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	f.record("InsertTask")
	if f.InsertErr != nil {
		return service.Task{}, f.InsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(fields), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, fields service.TaskFields) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			t.Title = fields.Title
			t.Description = fields.Description
			t.ImageURL = fields.ImageURL
			t.VideoURL = fields.VideoURL
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.record("DeleteTask")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}

// UploadObject implements service.Service.
func (f *FakeService) UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error {
	f.record("UploadObject")
	if f.UploadErr != nil {
		return f.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.objects[path]; exists {
		return fmt.Errorf("object already exists: %s", path)
	}
	f.objects[path] = data
	f.types[path] = contentType
	return nil
}

// PublicURL implements service.Service.
func (f *FakeService) PublicURL(path string) string {
	return PublicBase + path
}

// Session implements service.Service.
func (f *FakeService) Session(ctx context.Context) (*service.Session, error) {
	f.record("Session")
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

// SignIn implements service.Service.
func (f *FakeService) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	f.record("SignIn")
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	f.mu.Lock()
	want, ok := f.users[email]
	if !ok || want != password {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: invalid login credentials", service.ErrUnauthorized)
	}
	s := &service.Session{AccessToken: "token-" + email, User: service.User{ID: "u-" + email, Email: email}}
	f.session = s
	f.mu.Unlock()

	f.listeners.Emit(service.EventSignedIn, s)
	return s, nil
}

// SignUp implements service.Service.
func (f *FakeService) SignUp(ctx context.Context, email, password string) (*service.Session, error) {
	f.record("SignUp")
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	f.AddUser(email, password)
	if f.ConfirmSignUp {
		return nil, nil
	}
	return f.SignIn(ctx, email, password)
}

// SignOut implements service.Service.
func (f *FakeService) SignOut(ctx context.Context) error {
	f.record("SignOut")
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.SetSession(nil)
	f.listeners.Emit(service.EventSignedOut, nil)
	return nil
}

// Subscribe implements service.Service.
func (f *FakeService) Subscribe(fn func(service.AuthEvent, *service.Session)) func() {
	return f.listeners.Subscribe(fn)
}

func (f *FakeService) insertLocked(fields service.TaskFields) service.Task {
	t := service.Task{
		ID:          f.nextID,
		Title:       fields.Title,
		Description: fields.Description,
		CreatedAt:   f.Now(),
		ImageURL:    fields.ImageURL,
		VideoURL:    fields.VideoURL,
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeService) sortedLocked() []service.Task {
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
