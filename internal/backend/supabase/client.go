// Package supabase implements service.Service against a Supabase project:
// PostgREST for the task table, Storage for attachments and GoTrue for auth.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskboard/internal/config"
	"taskboard/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// UploadTimeout bounds storage uploads, which carry media.
	UploadTimeout = 60 * time.Second

	// DefaultTable is the task table name.
	DefaultTable = "tasks"

	// DefaultBucket is the attachment bucket name.
	DefaultBucket = "task_uploads"
)

// Options configures a Client.
type Options struct {
	URL         string
	AnonKey     string
	Table       string
	Bucket      string
	SessionPath string

	// HTTPClient is the base client. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Client implements service.Service using the Supabase REST APIs.
type Client struct {
	baseURL string
	anonKey string
	table   string
	bucket  string
	http    *http.Client
	now     func() time.Time

	sessions  *sessionFile
	listeners service.Listeners
	auth      authState
}

var _ service.Service = (*Client)(nil)

// New creates a new Supabase client from config.
// The session, if any, is read lazily from the config directory.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	return NewWithOptions(Options{
		URL:         cfg.Supabase.URL,
		AnonKey:     cfg.Supabase.AnonKey,
		Table:       cfg.Supabase.Table,
		Bucket:      cfg.Supabase.Bucket,
		SessionPath: cfg.SessionPath(),
	})
}

// NewWithOptions creates a client from explicit options (used by tests).
func NewWithOptions(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid supabase url: %q", opts.URL)
	}
	if opts.AnonKey == "" {
		return nil, errors.New("supabase anon key is empty")
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Client{
		baseURL:  base.String(),
		anonKey:  opts.AnonKey,
		table:    opts.Table,
		bucket:   opts.Bucket,
		http:     opts.HTTPClient,
		now:      opts.Now,
		sessions: &sessionFile{path: opts.SessionPath},
	}, nil
}

// request describes one REST call.
type request struct {
	method  string
	path    string
	query   url.Values
	header  http.Header
	body    io.Reader
	anon    bool          // authenticate with the anon key even if signed in
	noToken bool          // send only the apikey header
	timeout time.Duration // zero means APITimeout
}

// do performs a REST call and decodes a JSON response into out (if non-nil).
// Requests carry the project apikey header and a bearer token: the session's
// access token when signed in, otherwise the anon key.
func (c *Client) do(ctx context.Context, req request, out any) error {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return err
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	client, err := c.httpClient(ctx, req)
	if err != nil {
		return err
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return wrapError(decodeAPIError(resp))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", req.path, err)
	}
	return nil
}

// httpClient returns a client whose transport adds the apikey header and the
// bearer token for req.
func (c *Client) httpClient(ctx context.Context, req request) (*http.Client, error) {
	base := &apiKeyTransport{key: c.anonKey, base: c.http.Transport}
	if req.noToken {
		return &http.Client{Transport: base, Timeout: c.http.Timeout}, nil
	}

	var src oauth2.TokenSource
	if !req.anon {
		s, err := c.tokenSource(ctx)
		if err != nil {
			return nil, err
		}
		src = s
	}
	if src == nil {
		src = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.anonKey, TokenType: "Bearer"})
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: base},
		Timeout:   c.http.Timeout,
	}, nil
}

// apiKeyTransport adds the project apikey header to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.key)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

// apiError is the union of PostgREST, Storage and GoTrue error bodies.
type apiError struct {
	Status           int    `json:"-"`
	Code             any    `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
}

func (e *apiError) Error() string {
	msg := e.Message
	for _, alt := range []string{e.Msg, e.ErrorDescription, e.ErrorName} {
		if msg == "" {
			msg = alt
		}
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

func decodeAPIError(resp *http.Response) error {
	e := &apiError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, e); err != nil {
			e.Message = strings.TrimSpace(string(data))
		}
	}
	return e
}

// wrapError maps transport and API errors onto service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", service.ErrUnauthorized, apiErr)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", service.ErrNotFound, apiErr)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
	}

	return err
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
