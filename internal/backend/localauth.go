package backend

import (
	"context"
	"sync"

	"taskboard/internal/service"
)

// LocalUser is the identity reported when auth is disabled.
var LocalUser = service.User{ID: "local", Email: "local@localhost"}

// LocalAuth is the Authenticator used with auth backend "none": a session
// is present until SignOut and returns on the next SignIn with any
// credentials.
type LocalAuth struct {
	mu        sync.Mutex
	signedOut bool
	listeners service.Listeners
}

var _ service.Authenticator = (*LocalAuth)(nil)

// NewLocalAuth returns a signed-in LocalAuth.
func NewLocalAuth() *LocalAuth {
	return &LocalAuth{}
}

func (a *LocalAuth) session() *service.Session {
	return &service.Session{AccessToken: "local", TokenType: "Bearer", User: LocalUser}
}

// Session returns the local session unless signed out.
func (a *LocalAuth) Session(ctx context.Context) (*service.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.signedOut {
		return nil, nil
	}
	return a.session(), nil
}

// SignIn accepts any credentials.
func (a *LocalAuth) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	a.mu.Lock()
	a.signedOut = false
	s := a.session()
	a.mu.Unlock()
	a.listeners.Emit(service.EventSignedIn, s)
	return s, nil
}

// SignUp is SignIn.
func (a *LocalAuth) SignUp(ctx context.Context, email, password string) (*service.Session, error) {
	return a.SignIn(ctx, email, password)
}

func (a *LocalAuth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	a.signedOut = true
	a.mu.Unlock()
	a.listeners.Emit(service.EventSignedOut, nil)
	return nil
}

func (a *LocalAuth) Subscribe(fn func(service.AuthEvent, *service.Session)) func() {
	return a.listeners.Subscribe(fn)
}
