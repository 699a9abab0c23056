package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/atc-semframe/internal/config"
	"github.com/yegors/atc-semframe/internal/metrics"
	"github.com/yegors/atc-semframe/internal/semparse"
	"github.com/yegors/atc-semframe/internal/storage/sqlite"
	"github.com/yegors/atc-semframe/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(parser *semparse.Parser, storage *sqlite.TransmissionStorage, cfg *config.Config, m *metrics.Metrics, reload func() error, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(parser, storage, cfg, m, reload, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		metrics:    m,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Parsing
		router.Post("/parse", r.handler.ParseTransmission)

		// Stored transmissions
		router.Get("/transmissions", r.handler.GetTransmissions)
		router.Get("/transmissions/time-range", r.handler.GetTransmissionsByTimeRange)
		router.Get("/transmissions/callsign/{callsign}", r.handler.GetTransmissionsByCallsign)
		router.Get("/transmissions/{id}", r.handler.GetTransmissionByID)

		// Grammar
		router.Get("/grammar", r.handler.GetGrammar)
		router.Post("/grammar/reload", r.handler.ReloadGrammar)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	// Prometheus metrics
	router.Handle("/metrics", r.metrics.Handler())

	return router
}
