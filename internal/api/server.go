// Package api provides the HTTP API server and handlers for Shutterbox.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shutterboxapp/shutterbox/internal/metrics"
	"github.com/shutterboxapp/shutterbox/internal/ratelimit"
	"github.com/shutterboxapp/shutterbox/internal/sse"
)

// Options configures the HTTP surface.
type Options struct {
	Version     string
	CORSOrigins []string
	// MaxUploadMB bounds one import request.
	MaxUploadMB int
	// UploadRPS and UploadBurst rate limit imports per client IP.
	UploadRPS   float64
	UploadBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services      *Services
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	metrics       *metrics.Metrics
	uploadLimiter *ratelimit.KeyedRateLimiter
	maxUpload     int64
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sseManager *sse.Manager, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = defaultMaxUploadMB
	}
	if opts.UploadRPS <= 0 {
		opts.UploadRPS = defaultUploadRPS
	}
	if opts.UploadBurst <= 0 {
		opts.UploadBurst = defaultUploadBurst
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		services:      services,
		sseManager:    sseManager,
		metrics:       m,
		uploadLimiter: ratelimit.New(opts.UploadRPS, opts.UploadBurst),
		maxUpload:     int64(opts.MaxUploadMB) << 20,
		router:        chi.NewRouter(),
		logger:        logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Shutterbox API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown releases background resources. The http.Server is shut down by
// its owner.
func (s *Server) Shutdown() error {
	s.uploadLimiter.Stop()
	return nil
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(otelhttp.NewMiddleware("http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.metrics.Middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAssetRoutes()
	s.registerTagRoutes()
	s.registerLayoutRoutes()
	s.registerPhotoBookRoutes()
	s.registerSearchRoutes()

	// Multipart uploads, file downloads and streams use chi directly.
	s.router.With(RateLimitMiddleware(s.uploadLimiter, s.logger)).
		Post("/api/v1/imports", s.handleImport)
	s.router.Get("/api/v1/assets/{id}/file", s.handleAssetFile)
	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	s.router.Handle("/metrics", s.metrics.Handler())
}
