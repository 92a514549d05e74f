// Package uistate stores per-browser application snapshots for the web UI.
package uistate

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/internal/app"
	"taskboard/internal/config"
)

// DefaultTTL is how long an idle browser's state is kept.
const DefaultTTL = 24 * time.Hour

// Store persists snapshots by browser session id.
type Store interface {
	// Load returns the snapshot for id. ok is false if there is none.
	Load(ctx context.Context, id string) (s app.Snapshot, ok bool, err error)

	// Save stores the snapshot for id and renews its TTL.
	Save(ctx context.Context, id string, s app.Snapshot) error

	// Delete forgets id.
	Delete(ctx context.Context, id string) error

	Close() error
}

// New returns a Redis store when an address is configured, otherwise an
// in-memory store.
func New(cfg config.RedisConfig) Store {
	if cfg.Addr == "" {
		return NewMemory(DefaultTTL)
	}
	return NewRedis(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), DefaultTTL)
}

// Memory keeps snapshots in process.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	snap    app.Snapshot
	expires time.Time
}

// NewMemory creates an in-memory store whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Load(ctx context.Context, id string) (app.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return app.Snapshot{}, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, id)
		return app.Snapshot{}, false, nil
	}
	return e.snap, true, nil
}

// Save stores s under id and evicts every expired entry.
func (m *Memory) Save(ctx context.Context, id string, s app.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[id] = memoryEntry{snap: s, expires: now.Add(m.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *Memory) Close() error { return nil }
