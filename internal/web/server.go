// Package web provides the HTTP server for the fit service: a JSON API for
// single and batch computations, option discovery, an HTML result page and
// operational endpoints.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/JonMunkholm/fits/internal/batch"
	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/store"
	mw "github.com/JonMunkholm/fits/internal/web/middleware"
)

// Server is the HTTP server for the fit service.
type Server struct {
	engine   *fits.Engine
	computer batch.Computer
	snapshot *store.Snapshot
	cfg      *config.Config
	limiter  *batch.Limiter
	metrics  *Metrics
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a server computing against engine. snapshot describes
// where the index came from and may be nil.
func NewServer(engine *fits.Engine, snapshot *store.Snapshot, cfg *config.Config) *Server {
	limiter := batch.NewLimiter(cfg.Batch.MaxConcurrent, cfg.Batch.MaxWaitTime)
	metrics := NewMetrics(limiter)

	s := &Server{
		engine:   engine,
		computer: meteredEngine{engine: engine, metrics: metrics},
		snapshot: snapshot,
		cfg:      cfg,
		limiter:  limiter,
		metrics:  metrics,
		router:   chi.NewRouter(),
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
	s.router.Use(mw.Instrument(s.metrics.observeRequest))
	s.router.Use(middleware.Recoverer)

	compress, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		slog.Warn("compression disabled", "error", err)
	} else {
		s.router.Use(func(next http.Handler) http.Handler { return compress(next) })
	}

	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes. Operational endpoints are not
// rate limited.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			r.Use(mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst).Middleware)
		}

		r.Get("/", http.RedirectHandler("/fit", http.StatusFound).ServeHTTP)
		r.Get("/fit", s.handleFitPage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/fit", s.handleFitQuery)
			r.Post("/fit", s.handleFit)

			r.Get("/options", s.handleOptions)
			r.Get("/options/grades", s.handleGrades)

			r.Get("/index", s.handleIndex)

			r.With(mw.APIKeyAuth(s.cfg.Security)).Post("/batch", s.handleBatch)
		})
	})
}

// Start listens on the configured address until Shutdown.
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

// Shutdown stops accepting requests, then waits for running batch jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("batch jobs still running at shutdown", "active", s.limiter.ActiveCount())
		err = errors.Join(err, drainErr)
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Limiter returns the batch job limiter.
func (s *Server) Limiter() *batch.Limiter {
	return s.limiter
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// securityHeaders adds hardening headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
