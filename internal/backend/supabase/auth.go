package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"taskboard/internal/service"
)

// authState caches the session loaded from disk.
type authState struct {
	mu      sync.Mutex
	loaded  bool
	session *service.Session
}

// tokenResponse is the GoTrue token/signup response.
// Signup returns only the user object when email confirmation is pending.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r tokenResponse) session(now time.Time) *service.Session {
	if r.AccessToken == "" {
		return nil
	}
	s := &service.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		User:         service.User{ID: r.User.ID, Email: r.User.Email},
	}
	switch {
	case r.ExpiresAt > 0:
		s.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session returns the stored session, refreshing it if the access token has
// expired. Returns nil if there is no session. A failed refresh returns the
// error; callers treat that the same as no session.
func (c *Client) Session(ctx context.Context) (*service.Session, error) {
	s, err := c.current()
	if err != nil || s == nil {
		return nil, err
	}
	if !s.Expired(c.now()) {
		return s, nil
	}
	if s.RefreshToken == "" {
		return nil, nil
	}
	return c.refresh(ctx, s.RefreshToken)
}

// SignIn authenticates with the password grant and stores the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	body, err := jsonBody(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var resp tokenResponse
	err = c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/v1/token",
		query:   url.Values{"grant_type": {"password"}},
		body:    body,
		noToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s := resp.session(c.now())
	if s == nil {
		return nil, errors.New("sign in returned no session")
	}
	if err := c.store(s); err != nil {
		return nil, err
	}
	c.listeners.Emit(service.EventSignedIn, s)
	return s, nil
}

// SignUp registers an account. When the project auto-confirms, the returned
// session is stored as if signed in; otherwise nil is returned.
func (c *Client) SignUp(ctx context.Context, email, password string) (*service.Session, error) {
	body, err := jsonBody(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var resp tokenResponse
	err = c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/v1/signup",
		body:    body,
		noToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s := resp.session(c.now())
	if s == nil {
		return nil, nil
	}
	if err := c.store(s); err != nil {
		return nil, err
	}
	c.listeners.Emit(service.EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session server-side and removes it locally.
// The local session is removed even if the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	remoteErr := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/v1/logout",
		noToken: true,
		header:  http.Header{"Authorization": {"Bearer " + s.AccessToken}},
	}, nil)

	if err := c.store(nil); err != nil {
		return err
	}
	c.listeners.Emit(service.EventSignedOut, nil)

	if remoteErr != nil && !errors.Is(remoteErr, service.ErrUnauthorized) && !errors.Is(remoteErr, service.ErrNotFound) {
		return fmt.Errorf("sign out: %w", remoteErr)
	}
	return nil
}

// Subscribe registers fn for auth state changes.
func (c *Client) Subscribe(fn func(service.AuthEvent, *service.Session)) func() {
	return c.listeners.Subscribe(fn)
}

// refresh exchanges a refresh token for a new session and stores it.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*service.Session, error) {
	body, err := jsonBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	var resp tokenResponse
	err = c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/v1/token",
		query:   url.Values{"grant_type": {"refresh_token"}},
		body:    body,
		noToken: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	s := resp.session(c.now())
	if s == nil {
		return nil, fmt.Errorf("refresh session: %w", service.ErrUnauthorized)
	}
	if err := c.store(s); err != nil {
		return nil, err
	}
	c.listeners.Emit(service.EventTokenRefreshed, s)
	return s, nil
}

// tokenSource returns a source for the signed-in user's bearer token, or nil
// if nobody is signed in.
func (c *Client) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return oauth2.ReuseTokenSource(toOAuthToken(s), &refresher{c: c, ctx: ctx, token: s.RefreshToken}), nil
}

// refresher adapts refresh to oauth2.TokenSource.
type refresher struct {
	c     *Client
	ctx   context.Context
	token string
}

func (r *refresher) Token() (*oauth2.Token, error) {
	s, err := r.c.refresh(r.ctx, r.token)
	if err != nil {
		return nil, err
	}
	return toOAuthToken(s), nil
}

func toOAuthToken(s *service.Session) *oauth2.Token {
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    tokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry,
	}
}

func (c *Client) current() (*service.Session, error) {
	c.auth.mu.Lock()
	defer c.auth.mu.Unlock()
	if !c.auth.loaded {
		s, err := c.sessions.load()
		if err != nil {
			return nil, err
		}
		c.auth.session = s
		c.auth.loaded = true
	}
	return c.auth.session, nil
}

func (c *Client) store(s *service.Session) error {
	c.auth.mu.Lock()
	defer c.auth.mu.Unlock()
	var err error
	if s == nil {
		err = c.sessions.remove()
	} else {
		err = c.sessions.save(s)
	}
	if err != nil {
		return err
	}
	c.auth.session = s
	c.auth.loaded = true
	return nil
}

// sessionFile persists the session as JSON. An empty path keeps it in memory.
type sessionFile struct {
	path string
}

func (f *sessionFile) load() (*service.Session, error) {
	if f.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}
	var s service.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(f.path), err)
	}
	if strings.TrimSpace(s.AccessToken) == "" {
		return nil, nil
	}
	return &s, nil
}

// save writes the session with mode 0600.
func (f *sessionFile) save(s *service.Session) error {
	if f.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *sessionFile) remove() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
