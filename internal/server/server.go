// Package server provides the HTTP API for health trend reports.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/healthtrends/internal/database"
	"github.com/aristath/healthtrends/internal/events"
	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/scheduler"
	"github.com/aristath/healthtrends/internal/services"
)

// requestTimeout bounds API requests. A cold cache means a full history fetch.
const requestTimeout = 2 * time.Minute

// ReportService is the report pipeline as seen by the API
type ReportService interface {
	Build(ctx context.Context, window int) (*trends.Report, error)
	Run(ctx context.Context) (*trends.Report, error)
	WindowDays() int
	LastRun() *services.RunStatus
}

// JobLister exposes scheduled jobs
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// CacheCounter reports cached rows per table
type CacheCounter interface {
	Count() (map[string]int64, error)
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Reports   ReportService
	Registry  *trends.Registry
	EventBus  *events.Bus  // optional; disables the event stream when nil
	Jobs      JobLister    // optional
	CacheDB   *database.DB // optional
	CacheRepo CacheCounter // optional
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	port    int
	log     zerolog.Logger
	reports ReportService
	reg     *trends.Registry
	system  *SystemHandlers
	stream  *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	reg := cfg.Registry
	if reg == nil {
		reg = trends.DefaultRegistry()
	}

	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		log:     cfg.Log.With().Str("component", "server").Logger(),
		reports: cfg.Reports,
		reg:     reg,
		system:  NewSystemHandlers(cfg.Log, cfg.Reports, cfg.Jobs, cfg.CacheDB, cfg.CacheRepo),
	}
	if cfg.EventBus != nil {
		s.stream = NewEventsStreamHandler(cfg.EventBus, cfg.Log)
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived; must stay outside the timeout and compression group
		if s.stream != nil {
			r.Get("/events/ws", s.stream.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			if !devMode {
				r.Use(middleware.Compress(5))
			}

			r.Get("/metrics", s.handleMetrics)

			r.Route("/report", func(r chi.Router) {
				r.Get("/", s.handleReport)
				r.Get("/slack", s.handleReportSlack)
				r.Post("/deliver", s.handleDeliver)
			})

			r.Get("/system/status", s.system.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
