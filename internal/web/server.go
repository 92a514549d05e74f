// Package web serves the task board as server-rendered HTML.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/app"
	"taskboard/internal/gate"
	"taskboard/internal/service"
	"taskboard/internal/uistate"
)

//go:embed templates/*.html static/*
var assets embed.FS

const (
	// SessionCookie carries the browser's UI state id.
	SessionCookie = "taskboard_sid"

	// DefaultMaxUpload bounds a form post, attachments included.
	DefaultMaxUpload = 100 << 20

	// maxCachedApps bounds the in-memory App cache. Evicted browsers are
	// restored from the state store.
	maxCachedApps = 1024

	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Service service.Service

	// States persists per-browser state. Defaults to an in-memory store.
	States uistate.Store

	// Log is the diagnostic channel. Nil discards.
	Log *log.Logger

	// AccessLog, if non-nil, receives gin's request log.
	AccessLog io.Writer

	// FilesDir, if set, is served under /files/ (local object storage).
	FilesDir string

	// MaxUpload bounds a form post. Defaults to DefaultMaxUpload.
	MaxUpload int64
}

// Server is the web frontend.
type Server struct {
	svc       service.Service
	gate      *gate.Gate
	states    uistate.Store
	log       *log.Logger
	maxUpload int64
	router    *gin.Engine

	mu   sync.Mutex
	apps map[string]*app.App
}

// NewServer creates a server. Call Start before serving requests; until
// then the session state is unknown and guarded pages render nothing.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("web: no service")
	}
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	states := opts.States
	if states == nil {
		states = uistate.NewMemory(uistate.DefaultTTL)
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}

	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.AccessLog != nil {
		router.Use(gin.LoggerWithWriter(opts.AccessLog))
	}
	router.Use(securityHeaders)
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		svc:       opts.Service,
		gate:      gate.New(opts.Service, logger),
		states:    states,
		log:       logger,
		maxUpload: maxUpload,
		router:    router,
		apps:      make(map[string]*app.App),
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/static/app.css", s.handleCSS)
	if opts.FilesDir != "" {
		router.Static("/files", opts.FilesDir)
	}

	router.GET("/auth", s.handleAuthPage)
	router.POST("/auth", s.handleAuth)

	guarded := router.Group("/", s.requireSession)
	{
		guarded.GET("/", s.handleIndex)
		guarded.POST("/form", s.handleForm)
		guarded.POST("/tasks/:id/edit", s.handleEdit)
		guarded.POST("/tasks/:id/delete", s.handleDelete)
		guarded.POST("/theme", s.handleTheme)
		guarded.POST("/signout", s.handleSignOut)
	}

	api := router.Group("/api", s.requireSessionAPI)
	{
		api.GET("/tasks", s.handleAPITasks)
	}

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start subscribes the session gate and checks the current session.
func (s *Server) Start(ctx context.Context) {
	s.gate.Start(ctx)
}

// Stop releases the session gate subscription.
func (s *Server) Stop() {
	s.gate.Stop()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.Start(ctx)
	defer s.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requireSession applies the session gate to HTML routes.
func (s *Server) requireSession(c *gin.Context) {
	switch s.gate.Decision() {
	case gate.Wait:
		c.AbortWithStatus(http.StatusNoContent)
	case gate.Redirect:
		c.Redirect(http.StatusSeeOther, "/auth")
		c.Abort()
	}
}

// requireSessionAPI applies the session gate to JSON routes.
func (s *Server) requireSessionAPI(c *gin.Context) {
	switch s.gate.Decision() {
	case gate.Wait:
		c.AbortWithStatus(http.StatusNoContent)
	case gate.Redirect:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
	}
}

func securityHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: http: data:; media-src 'self' https: http:; style-src 'self'; base-uri 'none'; frame-ancestors 'none'")
	c.Next()
}
