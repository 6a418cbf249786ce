// Package api serves the reconciler over HTTP for local dashboards.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/ynab-reconcile/internal/api/handlers"
	"github.com/eshaffer321/ynab-reconcile/internal/api/middleware"
	"github.com/eshaffer321/ynab-reconcile/internal/application/service"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/metrics"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *appsync.Service
	jobs       *service.PullJobs
	metrics    *metrics.Metrics
}

// NewServer creates a new API server.
// If jobs is nil, the pull endpoints are not mounted.
func NewServer(cfg Config, svc *appsync.Service, jobs *service.PullJobs, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		svc:     svc,
		jobs:    jobs,
		metrics: m,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.svc)
	s.router.Get("/health", healthHandler.ServeHTTP)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		matchHandler := handlers.NewMatchHandler(s.svc)
		r.Get("/match", matchHandler.Get)

		pendingHandler := handlers.NewPendingHandler(s.svc)
		r.Get("/pending", pendingHandler.List)
		r.Post("/pending", pendingHandler.Create)
		r.Delete("/pending/{id}", pendingHandler.Delete)

		syncHandler := handlers.NewSyncHandler(s.svc, s.jobs)
		r.Post("/push", syncHandler.Push)
		if s.jobs != nil {
			r.Post("/pull", syncHandler.StartPull)
			r.Get("/pull", syncHandler.ListPulls)
			r.Get("/pull/{jobId}", syncHandler.GetPull)
			r.Delete("/pull/{jobId}", syncHandler.CancelPull)
		}

		runsHandler := handlers.NewRunsHandler(s.svc)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)

		statusHandler := handlers.NewStatusHandler(s.svc)
		r.Get("/status", statusHandler.Get)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // push walks every pending change
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
