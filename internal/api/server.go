// Package api provides the HTTP API server and handlers for the speedgun server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/takurot/baseball-speedgun/internal/config"
	"github.com/takurot/baseball-speedgun/internal/metrics"
	"github.com/takurot/baseball-speedgun/internal/ratelimit"
	"github.com/takurot/baseball-speedgun/internal/sse"
	"github.com/takurot/baseball-speedgun/internal/store/sqlite"
)

// apiVersion is reported in the OpenAPI document.
const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *sqlite.Store
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	metrics    *metrics.Manager
	limiter    *ratelimit.KeyedRateLimiter
	cfg        *config.Config
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg *config.Config,
	store *sqlite.Store,
	services *Services,
	sseManager *sse.Manager,
	sseHandler *sse.Handler,
	metricsManager *metrics.Manager,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:      store,
		services:   services,
		sseManager: sseManager,
		sseHandler: sseHandler,
		metrics:    metricsManager,
		limiter:    ratelimit.New(10, 30),
		cfg:        cfg,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(cfg.Server.Name, apiVersion)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	RegisterErrorHandler()
	s.api = humachi.New(s.router, humaConfig)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(authMiddleware(s.services.Auth))
}

// setupRoutes registers all operations. Handlers go through huma except
// the SSE stream and the Prometheus endpoint, which need raw access to
// the response writer.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerRankingRoutes()
	s.registerRecordRoutes()
	s.registerShareRoutes()

	s.router.Get("/api/v1/events/stream", s.handleSSEStream)
	s.router.Handle("/metrics", s.metrics.Handler())
}
