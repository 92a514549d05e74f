// Package gate decides whether guarded content may be shown based on the
// auth session.
package gate

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"taskboard/internal/service"
)

// State is the session state as seen by the gate.
type State int

const (
	StateUnknown State = iota // not checked yet
	StateAbsent
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Decision is what the frontend does with the guarded content.
type Decision int

const (
	Wait     Decision = iota // render nothing
	Redirect                 // go to the auth route
	Render
)

// Decide maps a state to a decision.
func Decide(s State) Decision {
	switch s {
	case StatePresent:
		return Render
	case StateAbsent:
		return Redirect
	default:
		return Wait
	}
}

// Gate tracks the session state of an Authenticator.
type Gate struct {
	auth service.Authenticator
	log  *log.Logger

	mu      sync.Mutex
	state   State
	session *service.Session
	unsub   func()
}

// New creates a gate in the unknown state. A nil logger discards.
func New(auth service.Authenticator, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Gate{auth: auth, log: logger}
}

// Start subscribes to auth changes and checks the current session.
// A failed check counts as absent. Calling Start twice has no effect.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.unsub != nil {
		g.mu.Unlock()
		return
	}
	g.unsub = g.auth.Subscribe(g.onAuthChange)
	g.mu.Unlock()

	g.Check(ctx)
}

// Check re-reads the session from the authenticator.
func (g *Gate) Check(ctx context.Context) State {
	s, err := g.auth.Session(ctx)
	if err != nil {
		g.log.Printf("session check: %v", err)
		s = nil
	}
	g.set(s)
	return g.State()
}

// Stop releases the auth subscription.
func (g *Gate) Stop() {
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (g *Gate) onAuthChange(ev service.AuthEvent, s *service.Session) {
	if ev == service.EventSignedOut {
		s = nil
	}
	g.set(s)
}

func (g *Gate) set(s *service.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
	if s == nil {
		g.state = StateAbsent
	} else {
		g.state = StatePresent
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Decision returns Decide(g.State()).
func (g *Gate) Decision() Decision {
	return Decide(g.State())
}

// Session returns the present session, or nil.
func (g *Gate) Session() *service.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Require returns the current session or an error wrapping
// service.ErrNoSession. Used by one-shot frontends that cannot wait.
func Require(ctx context.Context, auth service.Authenticator) (*service.Session, error) {
	s, err := auth.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrNoSession, err)
	}
	if s == nil {
		return nil, service.ErrNoSession
	}
	return s, nil
}
