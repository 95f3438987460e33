// Package web serves the student form over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/students/internal/config"
	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/web/middleware"
	"github.com/JonMunkholm/students/internal/web/templates"
)

// Pinger checks the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the student form.
//
// The controller holds one user's form state and is not safe for
// concurrent use, so every handler that touches it holds mu. Actions run
// one at a time, like button presses on a single event thread.
type Server struct {
	cfg    config.ServerConfig
	store  Pinger
	router *chi.Mux
	server *http.Server

	mu    sync.Mutex
	ctrl  *form.Controller
	flash *flash
}

// flash is shown on the next page render, then dropped.
type flash struct {
	notice form.Notice

	// values overrides the controller fields, for input the controller
	// could not hold (a batch year that isn't a number).
	values *templates.FormValues
}

// NewServer creates a new Server instance.
func NewServer(ctrl *form.Controller, store Pinger, cfg config.ServerConfig) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		router: chi.NewRouter(),
		ctrl:   ctrl,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	// Form actions
	s.router.Post("/create", s.handleCreate)
	s.router.Post("/read", s.handleRead)
	s.router.Post("/update", s.handleUpdate)
	s.router.Post("/delete", s.handleDelete)
	s.router.Post("/clear", s.handleClear)
	s.router.Post("/select/{id}", s.handleSelect)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/students", s.handleListStudents)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.cfg.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// htmx is the only script and loads from unpkg.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; form-action 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
