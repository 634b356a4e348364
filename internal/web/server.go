// Package web provides the HTTP server, pages and JSON API for the data
// sweeper.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
	mw "github.com/JonMunkholm/datasweeper/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the data sweeper.
type Server struct {
	cfg     *config.Config
	service *core.Service
	metrics *metrics.Metrics
	limiter *mw.RateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. m may be nil, in which case /metrics is not
// mounted.
func NewServer(cfg *config.Config, service *core.Service, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		metrics: m,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = mw.NewRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(mw.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handlePage)
		r.Post("/upload", s.handlePageUpload)
		r.Post("/annotations", s.handlePageAnnotations)
		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Post("/clean", s.handlePageClean)
			r.Post("/columns", s.handlePageColumns)
			r.Post("/reset", s.handlePageReset)
			r.Post("/delete", s.handlePageDelete)
			r.Get("/export", s.handleExport)
		})
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Use(s.sessionMiddleware)

		r.Get("/session", s.handleGetSession)
		r.Put("/session/annotations", s.handleSetAnnotations)

		r.Post("/files", s.handleUpload)
		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", s.handleGetFile)
			r.Delete("/", s.handleDeleteFile)
			r.Post("/clean", s.handleClean)
			r.Put("/columns", s.handleSelectColumns)
			r.Get("/preview", s.handlePreview)
			r.Get("/chart", s.handleChart)
			r.Post("/reset", s.handleReset)
			r.Get("/export", s.handleExport)
		})
	})
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for conversions in progress.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	lim := s.service.Limiter()
	if n := lim.ActiveCount(); n > 0 {
		slog.Info("waiting for conversions to finish", "active", n)
	}
	return lim.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// RateLimiter returns the per-IP limiter, or nil when rate limiting is off.
func (s *Server) RateLimiter() *mw.RateLimiter {
	return s.limiter
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.service.SessionCount(),
		"limiter":  s.service.Limiter().Status(),
	})
}
