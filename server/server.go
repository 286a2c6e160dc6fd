// Package server provides HTTP server management for the interactions API:
// middleware configuration, route setup, and graceful shutdown.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/handlers"
	"github.com/medsafe/interactions-api/interfaces"
	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	config  *config.Config
	limiter *RateLimiter
}

// Deps carries the injected collaborators for route setup.
type Deps struct {
	Validator interfaces.ProfileValidator
	Generator interfaces.ReportGenerator
	Checker   interfaces.HealthChecker
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			// Reports wait on two upstreams per drug; give writes room.
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		config:  cfg,
		limiter: NewRateLimiter(),
	}

	s.setupMiddleware()
	s.setupRoutes(deps)

	return s
}

// Limiter exposes the rate limiter for scheduled housekeeping.
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	logger := slog.Default()
	if logging.DefaultLoggingService != nil {
		logger = logging.DefaultLoggingService.Logger
	}

	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))

	// The form page is opened straight from disk, so any origin is allowed.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.limiter.Handler)
	s.router.Use(metrics.Instrument)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(deps Deps) {
	s.router.Post("/generate-report", handlers.GenerateReport(deps.Validator, deps.Generator))
	s.router.Post("/check-drug", handlers.CheckDrug(deps.Validator, deps.Generator))
	s.router.Get("/health", handlers.HealthCheck(deps.Checker))
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins listening; it blocks until the server stops.
func (s *Server) Start() error {
	logging.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown attempts a graceful shutdown, falling back to a hard close.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		return s.server.Close()
	}
	return nil
}
