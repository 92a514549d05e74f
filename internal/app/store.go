package app

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"taskboard/internal/service"
)

// Store is the task store adapter: pass-through calls to the task table
// plus the cached collection. Failures are logged; callers decide how to
// tell the user.
type Store struct {
	table service.TaskTable
	log   *log.Logger

	issued atomic.Uint64 // last List token handed out

	mu      sync.Mutex
	applied uint64 // token of the response the cache holds
	tasks   []service.Task
}

// NewStore creates a store over table. A nil logger discards.
func NewStore(table service.TaskTable, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{table: table, log: logger}
}

// List fetches the collection and caches it unless a newer List has already
// been applied. It returns the cached collection either way. On failure the
// cache is left untouched.
func (s *Store) List(ctx context.Context) ([]service.Task, error) {
	token := s.issued.Add(1)
	tasks, err := s.table.ListTasks(ctx)
	if err != nil {
		s.log.Printf("list tasks: %v", err)
		return s.Tasks(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token > s.applied {
		s.applied = token
		s.tasks = tasks
	} else {
		s.log.Printf("list tasks: discarding stale response %d (applied %d)", token, s.applied)
	}
	return append([]service.Task(nil), s.tasks...), nil
}

// Tasks returns a copy of the cached collection.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Task(nil), s.tasks...)
}

// Find returns the cached task with id.
func (s *Store) Find(id int64) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Create inserts a task.
func (s *Store) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	t, err := s.table.InsertTask(ctx, fields)
	if err != nil {
		s.log.Printf("insert task: %v", err)
	}
	return t, err
}

// Update replaces the mutable fields of task id.
func (s *Store) Update(ctx context.Context, id int64, fields service.TaskFields) (service.Task, error) {
	t, err := s.table.UpdateTask(ctx, id, fields)
	if err != nil {
		s.log.Printf("update task %d: %v", id, err)
	}
	return t, err
}

// Delete removes task id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.table.DeleteTask(ctx, id)
	if err != nil {
		s.log.Printf("delete task %d: %v", id, err)
	}
	return err
}
