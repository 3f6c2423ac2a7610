package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/reconcile"
	"github.com/JayRKay91/photo-share-app-v3/internal/startup"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
	"github.com/JayRKay91/photo-share-app-v3/internal/upload"
	"github.com/JayRKay91/photo-share-app-v3/web"

	"github.com/gorilla/sessions"
)

// sessionName is the cookie holding transient flash messages.
const sessionName = "gallery_session"

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	store      *store.Store
	pipeline   *upload.Pipeline
	reconciler *reconcile.Reconciler

	uploadDir      string
	thumbDir       string
	maxUploadBytes int64

	sessions  *sessions.CookieStore
	templates *template.Template
	startTime time.Time
}

// New creates the handler set, parsing the embedded page templates.
func New(st *store.Store, pipe *upload.Pipeline, rec *reconcile.Reconciler, cfg *startup.Config) (*Handlers, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0, // session cookie; flashes are transient by nature
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Handlers{
		store:          st,
		pipeline:       pipe,
		reconciler:     rec,
		uploadDir:      cfg.UploadDir,
		thumbDir:       cfg.ThumbDir,
		maxUploadBytes: cfg.MaxUploadBytes(),
		sessions:       cookieStore,
		templates:      tmpl,
		startTime:      time.Now(),
	}, nil
}

// flash queues a transient user-visible message for the next page load.
func (h *Handlers) flash(w http.ResponseWriter, r *http.Request, format string, args ...interface{}) {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session; keep going.
		logging.Debug("flash: new session: %v", err)
	}
	session.AddFlash(fmt.Sprintf(format, args...))
	if err := session.Save(r, w); err != nil {
		logging.Warn("flash: save session: %v", err)
	}
}

// takeFlashes pops all queued flash messages.
func (h *Handlers) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		logging.Debug("flashes: new session: %v", err)
	}
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(r, w); err != nil {
			logging.Warn("flashes: save session: %v", err)
		}
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// render executes one page template, logging failures since little can
// be done for a half-written response.
func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.Error("render %s: %v", name, err)
	}
}

// redirectHome sends the browser back to the gallery.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
