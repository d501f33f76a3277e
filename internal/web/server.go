// Package web provides the HTTP API that offline clients synchronize with.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/frequencia/internal/config"
	"github.com/JonMunkholm/frequencia/internal/core"
	appmw "github.com/JonMunkholm/frequencia/internal/web/middleware"
)

// Server is the HTTP server for the sync API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// syncLimited wraps the batch endpoints in their own, tighter rate limit.
func (s *Server) syncLimited(r chi.Router) chi.Router {
	if !s.cfg.Rate.Enabled {
		return r
	}
	return r.With(s.newRateLimiter(s.cfg.Rate.SyncLimit).middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/revisao", s.handleReviewPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/escolas", func(r chi.Router) {
			r.Get("/", s.handleListEscolas)
			r.Post("/", s.handleSave(core.EntityEscola))
			s.syncLimited(r).Post("/sync", s.handleSync(core.EntityEscola))
			r.Get("/{id}/turmas", s.handleListTurmasOfEscola("id"))
		})

		r.Route("/turmas", func(r chi.Router) {
			r.Get("/", s.handleListTurmas)
			r.Post("/", s.handleSave(core.EntityTurma))
			s.syncLimited(r).Post("/sync", s.handleSync(core.EntityTurma))
			r.Get("/{id}/alunos", s.handleListAlunosOfTurma("id"))
			r.Get("/escolas/{escolaId}", s.handleListTurmasOfEscola("escolaId"))
		})

		r.Route("/alunos", func(r chi.Router) {
			r.Get("/", s.handleListAlunos)
			r.Post("/", s.handleSave(core.EntityAluno))
			s.syncLimited(r).Post("/sync", s.handleSync(core.EntityAluno))
			r.Get("/turmas/{turmaId}", s.handleListAlunosOfTurma("turmaId"))
		})

		r.Route("/presencas", func(r chi.Router) {
			r.Get("/", s.handleListPresencas)
			r.Post("/", s.handleSave(core.EntityPresenca))
			s.syncLimited(r).Post("/sync", s.handleSync(core.EntityPresenca))
			s.syncLimited(r).Post("/batch", s.handleSync(core.EntityPresenca))
			r.Get("/turmas/{turmaId}/presencas", s.handleTurmaPresencas)
			r.Get("/alunos/{alunoId}", s.handleAttendanceHistory)
		})

		r.Route("/registros-invalidos", func(r chi.Router) {
			r.Get("/", s.handleListQuarantine)
			r.Post("/", s.handleCreateQuarantine)
			r.Get("/{id}", s.handleGetQuarantine)
			r.Put("/{id}", s.handleUpdateQuarantine)
			r.Delete("/{id}", s.handleDeleteQuarantine)
			r.Post("/{id}/restaurar", s.handleRestoreQuarantine)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports store reachability and batch capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status": "ok",
		"sync":   s.service.SyncStatus(),
	}

	if err := s.service.Ping(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["error"] = core.MapError(err).Message
	}

	writeJSONStatus(w, status, body)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The review page is server-rendered with inline styles only.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
