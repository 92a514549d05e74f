package web

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/app"
	"taskboard/internal/gate"
	"taskboard/internal/service"
)

// Form actions posted to /form.
const (
	actionSubmit     = "submit"
	actionAttach     = "attach"
	actionCancel     = "cancel"
	actionClearImage = "clear_image"
	actionClearVideo = "clear_video"
)

// indexData is the view model for index.html.
type indexData struct {
	Theme       app.Theme
	ThemeToggle string
	Editing     bool
	Form        app.Form
	Notices     []app.Notice
	Tasks       []service.Task
	User        service.User
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleCSS(c *gin.Context) {
	data, err := assets.ReadFile("static/app.css")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", data)
}

func (s *Server) handleIndex(c *gin.Context) {
	id, a := s.appFor(c)
	ctx := c.Request.Context()

	_ = a.Refresh(ctx)
	_, editing := app.EditingID(a.Mode())
	data := indexData{
		Theme:       a.Theme(),
		ThemeToggle: a.Theme().ToggleLabel(),
		Editing:     editing,
		Form:        a.Form(),
		Notices:     a.Notices().Drain(),
		Tasks:       a.Tasks(),
	}
	if sess := s.gate.Session(); sess != nil {
		data.User = sess.User
	}
	s.save(ctx, id, a)
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) handleForm(c *gin.Context) {
	id, a := s.appFor(c)
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.log.Printf("parse form: %v", err)
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	a.SetText(c.PostForm("title"), c.PostForm("description"))

	switch c.PostForm("action") {
	case actionCancel:
		a.Cancel()
	case actionClearImage:
		a.ClearAttachment(service.CategoryImage)
	case actionClearVideo:
		a.ClearAttachment(service.CategoryVideo)
	case actionAttach:
		_ = s.attachFiles(ctx, c, a)
	default:
		// Nothing is uploaded for a form that cannot be saved. A failed
		// upload stops the submission and leaves the form intact.
		if err := a.Form().Validate(); err != nil {
			_ = a.Submit(ctx)
		} else if err := s.attachFiles(ctx, c, a); err == nil {
			_ = a.Submit(ctx)
		}
	}

	s.save(ctx, id, a)
	c.Redirect(http.StatusSeeOther, "/")
}

// attachFiles uploads the image and video file inputs, if present. Both are
// attempted; the first error is returned.
func (s *Server) attachFiles(ctx context.Context, c *gin.Context, a *app.App) error {
	var firstErr error
	for _, cat := range []service.Category{service.CategoryImage, service.CategoryVideo} {
		fh, err := c.FormFile(string(cat))
		if err != nil || fh.Filename == "" || fh.Size == 0 {
			continue
		}
		if err := attach(ctx, a, cat, fh); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func attach(ctx context.Context, a *app.App, cat service.Category, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return a.Attach(ctx, cat, fh.Filename, f)
}

func (s *Server) handleEdit(c *gin.Context) {
	id, a := s.appFor(c)
	ctx := c.Request.Context()

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	// Edit shows the record's current values, not a cached copy.
	if err := a.Refresh(ctx); err == nil {
		_ = a.EditByID(taskID)
	}
	s.save(ctx, id, a)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleDelete(c *gin.Context) {
	id, a := s.appFor(c)
	ctx := c.Request.Context()

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}
	_ = a.Delete(ctx, taskID)
	s.save(ctx, id, a)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleTheme(c *gin.Context) {
	id, a := s.appFor(c)
	a.ToggleTheme()
	s.save(c.Request.Context(), id, a)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleSignOut(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.svc.SignOut(ctx); err != nil {
		s.log.Printf("sign out: %v", err)
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		s.forget(ctx, id)
	}
	c.Redirect(http.StatusSeeOther, "/auth")
}

// authData is the view model for auth.html.
type authData struct {
	Email   string
	Error   string
	Message string
}

func (s *Server) handleAuthPage(c *gin.Context) {
	if s.gate.Check(c.Request.Context()) == gate.StatePresent {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "auth.html", authData{})
}

func (s *Server) handleAuth(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.PostForm("email")
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "auth.html", authData{Email: email, Error: "Please enter your email and password!"})
		return
	}

	var (
		sess *service.Session
		err  error
	)
	if c.PostForm("action") == "signup" {
		sess, err = s.svc.SignUp(ctx, email, password)
	} else {
		sess, err = s.svc.SignIn(ctx, email, password)
	}
	if err != nil {
		s.log.Printf("auth %s: %v", email, err)
		c.HTML(http.StatusUnauthorized, "auth.html", authData{Email: email, Error: "Authentication failed!"})
		return
	}
	if sess == nil {
		c.HTML(http.StatusOK, "auth.html", authData{Email: email, Message: "Check your email to confirm your account."})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleAPITasks(c *gin.Context) {
	tasks, err := s.svc.ListTasks(c.Request.Context())
	if err != nil {
		s.log.Printf("list tasks: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend error"})
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func parseTaskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

// appFor returns the browser's App, creating the session cookie and
// restoring saved state as needed.
func (s *Server) appFor(c *gin.Context) (string, *app.App) {
	id, err := c.Cookie(SessionCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)

	s.mu.Lock()
	a, ok := s.apps[id]
	if !ok {
		if len(s.apps) >= maxCachedApps {
			for k := range s.apps {
				delete(s.apps, k)
				break
			}
		}
		a = app.New(s.svc, app.Options{Log: s.log})
		s.apps[id] = a
	}
	s.mu.Unlock()

	if !ok {
		snap, found, err := s.states.Load(c.Request.Context(), id)
		if err != nil {
			s.log.Printf("load ui state: %v", err)
		}
		if found {
			a.Restore(snap)
		}
	}
	return id, a
}

func (s *Server) save(ctx context.Context, id string, a *app.App) {
	if err := s.states.Save(ctx, id, a.Snapshot()); err != nil {
		s.log.Printf("save ui state: %v", err)
	}
}

func (s *Server) forget(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.apps, id)
	s.mu.Unlock()
	if err := s.states.Delete(ctx, id); err != nil {
		s.log.Printf("delete ui state: %v", err)
	}
}
