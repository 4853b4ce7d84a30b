package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"datalens/domain/core"
	apperrors "datalens/internal/errors"
	"datalens/internal/session"
	"datalens/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

const sessionCookieName = "datalens_session"

// App represents the UI application
type App struct {
	router         *chi.Mux
	sessions       *session.Store
	storage        ports.FileStorage
	catalog        ports.CatalogRepository
	templates      *template.Template
	maxUploadBytes int64
	port           string
}

// Config holds UI application configuration
type Config struct {
	Port           string
	MaxUploadBytes int64
	Sessions       *session.Store
	Storage        ports.FileStorage
	Catalog        ports.CatalogRepository
}

// NewApp creates a new UI application
func NewApp(config Config) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"num": func(v float64) string { return fmt.Sprintf("%.4g", v) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:         chi.NewRouter(),
		sessions:       config.Sessions,
		storage:        config.Storage,
		catalog:        config.Catalog,
		templates:      templates,
		maxUploadBytes: config.MaxUploadBytes,
		port:           config.Port,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	// Serve static files
	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", http.StripPrefix("/", staticFS))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	// Main page
	a.router.Get("/", a.handleIndex)

	// Upload and loading
	a.router.Post("/api/upload", a.handleUpload)
	a.router.Post("/api/sheets/select", a.handleSheetSelect)
	a.router.Get("/api/table/preview", a.handleTablePreview)
	a.router.Get("/api/history", a.handleHistory)

	// Cleaning operations
	a.router.Post("/api/clean/drop-missing", a.handleDropMissing)
	a.router.Post("/api/clean/impute", a.handleImpute)
	a.router.Post("/api/clean/drop-columns", a.handleDropColumns)
	a.router.Post("/api/clean/reset", a.handleCleanReset)

	// Summary statistics
	a.router.Get("/api/summary", a.handleSummary)
	a.router.Get("/api/summary/missing", a.handleMissing)

	// Chart data endpoints
	a.router.Get("/api/charts/columns", a.handleChartColumns)
	a.router.Get("/api/charts/histogram", a.handleHistogram)
	a.router.Get("/api/charts/box", a.handleBoxPlot)
	a.router.Get("/api/charts/scatter", a.handleScatter)
	a.router.Get("/api/charts/bar", a.handleBar)
	a.router.Get("/api/charts/heatmap", a.handleHeatmap)

	// Report
	a.router.Get("/report/download", a.handleReportDownload)
	a.router.Get("/api/report/preview", a.handleReportPreview)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.port
	log.Printf("Starting DataLens UI server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// HTMX helpers
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// JSON helpers
func (a *App) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

// writeError maps application error codes to HTTP status codes
func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound, apperrors.CodeSessionExpired:
		status = http.StatusNotFound
	case apperrors.CodeUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	}
	if status == http.StatusInternalServerError {
		log.Printf("[App] Internal error: %v", err)
	}
	a.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}

// currentSession returns the live session for the request cookie, or nil
func (a *App) currentSession(r *http.Request) *session.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	id, err := core.ParseSessionID(cookie.Value)
	if err != nil {
		return nil
	}
	return a.sessions.Get(id)
}

// ensureSession returns the request's session, creating one when absent
func (a *App) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess := a.currentSession(r); sess != nil {
		return sess
	}
	sess := a.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    string(sess.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// requireLoaded returns the session only if it has a loaded table
func (a *App) requireLoaded(r *http.Request) (*session.Session, error) {
	sess := a.currentSession(r)
	if sess == nil {
		return nil, apperrors.SessionExpired()
	}
	sess.Lock()
	loaded := sess.Cleaned != nil
	sess.Unlock()
	if !loaded {
		return nil, apperrors.InvalidInput("no dataset loaded, upload a file first")
	}
	return sess, nil
}

// handleIndex renders the dashboard shell
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := a.ensureSession(w, r)

	sess.Lock()
	data := map[string]interface{}{
		"HasData":  sess.Cleaned != nil,
		"Filename": sess.Filename,
		"Sheet":    sess.Sheet,
	}
	sess.Unlock()

	a.renderTemplate(w, "index.html", data)
}
