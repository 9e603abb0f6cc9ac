// Package api provides the HTTP API for TacnaVial.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/handler"
	"github.com/tacnavial/tacnavial/internal/api/middleware"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/mapview"
	"github.com/tacnavial/tacnavial/internal/metrics"
	"github.com/tacnavial/tacnavial/internal/provider/resilience"
	"github.com/tacnavial/tacnavial/internal/segment"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects plain-HTTP requests behind a proxy.
	RequireTLS bool
	// RateLimit is the per-IP limit for standard endpoints, per minute.
	// Zero selects the default; a negative value disables limiting.
	RateLimit int

	Obstructions handler.ObstructionService
	Comments     handler.CommentService
	Routes       handler.RouteService
	Planner      handler.Planner
	Geocoder     geocoding.Geocoder
	Region       geocoding.Region
	Renderer     *mapview.Renderer
	Segments     *segment.Store

	Checks   []handler.Check
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tacnavial-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))      // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))    // Panic recovery
	r.Use(chimiddleware.RealIP)               // Real IP extraction
	r.Use(middleware.SecurityHeaders)         // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = mapview.NewRenderer(mapview.Config{})
	}

	var counters []handler.Counter
	if cfg.Obstructions != nil {
		counters = append(counters, handler.Counter{Name: "obstructions", Value: cfg.Obstructions.Count})
	}
	if cfg.Segments != nil {
		segments := cfg.Segments
		counters = append(counters, handler.Counter{Name: "segmentSessions", Value: func(context.Context) (int, error) {
			return segments.Len(), nil
		}})
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:        cfg.Version,
		BuildTime:      cfg.BuildTime,
		Checks:         cfg.Checks,
		Counters:       counters,
		Registry:       cfg.Registry,
		MapsConfigured: renderer.Config().Check() == nil,
	})
	obstructionHandler := handler.NewObstructionHandler(cfg.Obstructions, cfg.Logger)
	commentHandler := handler.NewCommentHandler(cfg.Comments, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.Routes, cfg.Logger)
	plannerHandler := handler.NewPlannerHandler(handler.PlannerHandlerConfig{
		Planner:  cfg.Planner,
		Geocoder: cfg.Geocoder,
		Region:   cfg.Region,
		Logger:   cfg.Logger,
	})
	mapHandler := handler.NewMapHandler(renderer, cfg.Obstructions, cfg.Planner, cfg.Logger)
	segmentHandler := handler.NewSegmentHandler(cfg.Segments, cfg.Logger)

	limits := middleware.NewRateLimits(cfg.RateLimit)
	publicRateLimit := middleware.RateLimitByIP(limits.Public)
	mapRateLimit := middleware.RateLimitByIP(limits.Map)
	adminRateLimit := middleware.RateLimitByIP(limits.Admin)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/obstructions", func(r chi.Router) {
			r.Use(publicRateLimit)
			r.Get("/", obstructionHandler.ListObstructions)
			r.Post("/", obstructionHandler.CreateObstruction)
			r.Delete("/{obstructionId}", obstructionHandler.DeleteObstruction)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(publicRateLimit)
			r.Get("/", commentHandler.ListComments)
			r.Post("/", commentHandler.SubmitComment)
		})

		r.Route("/routes", func(r chi.Router) {
			r.With(publicRateLimit).Get("/", routeHandler.ListRoutes)
			r.With(adminRateLimit).Post("/{routeId}/toggle", routeHandler.ToggleRoute)
		})

		// Planner and geocoding call paid providers
		r.With(mapRateLimit).Post("/planner/directions", plannerHandler.Directions)
		r.With(mapRateLimit).Get("/geocode", plannerHandler.Geocode)

		r.Route("/map", func(r chi.Router) {
			r.With(publicRateLimit).Get("/config", mapHandler.Config)
			r.With(publicRateLimit).Get("/obstructions", mapHandler.Obstructions)
			r.With(publicRateLimit).Post("/click", mapHandler.Click)
			r.With(mapRateLimit).Post("/directions", mapHandler.Directions)
		})

		r.Route("/admin/segment-sessions", func(r chi.Router) {
			r.Use(adminRateLimit)
			r.Post("/", segmentHandler.CreateSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", segmentHandler.GetSession)
				r.Delete("/", segmentHandler.DeleteSession)
				r.Post("/start", segmentHandler.Start)
				r.Post("/click", segmentHandler.Click)
				r.Post("/addresses", segmentHandler.DefineByAddresses)
				r.Post("/coordinates", segmentHandler.DefineByCoordinates)
				r.Post("/cancel", segmentHandler.Cancel)
				r.Post("/close", segmentHandler.Close)
				r.Post("/submit", segmentHandler.Submit)
			})
		})
	})

	return r
}
