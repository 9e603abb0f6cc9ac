// Package main provides the entrypoint for the TacnaVial API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api"
	"github.com/tacnavial/tacnavial/internal/api/handler"
	"github.com/tacnavial/tacnavial/internal/api/middleware"
	"github.com/tacnavial/tacnavial/internal/comment"
	"github.com/tacnavial/tacnavial/internal/config"
	"github.com/tacnavial/tacnavial/internal/database"
	"github.com/tacnavial/tacnavial/internal/events"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/geocoding/googlemaps"
	"github.com/tacnavial/tacnavial/internal/geocoding/valkeycache"
	"github.com/tacnavial/tacnavial/internal/mapview"
	"github.com/tacnavial/tacnavial/internal/obstruction"
	"github.com/tacnavial/tacnavial/internal/provider/resilience"
	"github.com/tacnavial/tacnavial/internal/route"
	"github.com/tacnavial/tacnavial/internal/routing"
	"github.com/tacnavial/tacnavial/internal/routing/openrouteservice"
	"github.com/tacnavial/tacnavial/internal/seed"
	"github.com/tacnavial/tacnavial/internal/segment"
	"github.com/tacnavial/tacnavial/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "tacnavial-api"

type stores struct {
	obstructions obstruction.Repository
	comments     comment.Repository
	routes       route.Repository
	checks       []handler.Check
	close        func()
}

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Str("store", cfg.Store.Backend).
		Str("events", cfg.Events.Backend).
		Msg("starting TacnaVial API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.close()

	if cfg.Store.Seed {
		if err := applySeed(ctx, cfg, st, log); err != nil {
			log.Fatal().Err(err).Msg("failed to seed store")
		}
	}

	publisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect event bus")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("closing event publisher")
		}
	}()

	registry := resilience.NewRegistry()

	obstructions := obstruction.NewService(obstruction.ServiceConfig{
		Repository: st.obstructions,
		Publisher:  publisher,
		Logger:     log,
	})
	comments := comment.NewService(comment.ServiceConfig{
		Repository: st.comments,
		Publisher:  publisher,
		Logger:     log,
	})
	routes := route.NewService(route.ServiceConfig{
		Repository: st.routes,
		Publisher:  publisher,
		Logger:     log,
	})

	geocoder, closeGeocoder := newGeocoder(cfg, registry, log)
	defer closeGeocoder()

	directions := routing.NewService(routing.ServiceConfig{
		Provider: openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   cfg.Routing.ORSAPIKey,
			BaseURL:  cfg.Routing.ORSBaseURL,
			Language: cfg.Maps.Language,
			Registry: registry,
			Logger:   log,
		}),
		Logger:   log,
		CacheTTL: cfg.Routing.CacheTTL,
	})
	if cfg.Routing.ORSAPIKey == "" {
		log.Warn().Msg("ORS_API_KEY not set: route planning will fail upstream")
	}

	planner := routing.NewPlanner(routing.PlannerConfig{
		Directions:   directions,
		Geocoder:     geocoder,
		Obstructions: obstructions,
		Logger:       log,
	})

	segments := segment.NewStore(segment.StoreConfig{
		Geocoder: geocoder,
		Creator:  obstructions,
		Logger:   log,
		IdleTTL:  cfg.Server.SessionTTL,
	})

	renderer := mapview.NewRenderer(mapview.Config{
		APIKey: cfg.Maps.APIKey,
		MapID:  cfg.Maps.MapID,
		Zoom:   cfg.Maps.Zoom,
	})
	if !cfg.MapsConfigured() {
		log.Warn().Msg(mapview.ErrNotConfigured.Error())
	}

	rateLimit := cfg.Server.RateLimit
	if rateLimit == 0 {
		rateLimit = -1
	}

	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      httpMetrics,
		RequireTLS:   cfg.Server.RequireTLS,
		RateLimit:    rateLimit,
		Obstructions: obstructions,
		Comments:     comments,
		Routes:       routes,
		Planner:      planner,
		Geocoder:     geocoder,
		Renderer:     renderer,
		Segments:     segments,
		Checks:       st.checks,
		Registry:     registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, segments, cfg.Server.SessionTTL)

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.Store.Backend == config.StoreMemory {
		log.Info().Msg("using in-memory store; data is lost on restart")
		return &stores{
			obstructions: obstruction.NewInMemoryRepository(),
			comments:     comment.NewInMemoryRepository(),
			routes:       route.NewInMemoryRepository(),
			close:        func() {},
		}, nil
	}

	dbConfig := cfg.Database.Pool()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	return &stores{
		obstructions: obstruction.NewPostgresRepository(pool),
		comments:     comment.NewPostgresRepository(pool),
		routes:       route.NewPostgresRepository(pool),
		checks:       []handler.Check{{Name: "database", Probe: pool.Ping}},
		close:        pool.Close,
	}, nil
}

func applySeed(ctx context.Context, cfg *config.Config, st *stores, log zerolog.Logger) error {
	var (
		doc *seed.Document
		err error
	)
	if cfg.Store.SeedFile != "" {
		doc, err = seed.Load(cfg.Store.SeedFile)
	} else {
		doc, err = seed.Default()
	}
	if err != nil {
		return err
	}
	return seed.Apply(ctx, doc, seed.Targets{
		Obstructions: st.obstructions,
		Comments:     st.comments,
		Routes:       st.routes,
	}, time.Now(), log)
}

func openPublisher(ctx context.Context, cfg *config.Config, log zerolog.Logger) (events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsPubSub:
		return events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: cfg.Events.ProjectID,
			Topic:     cfg.Events.Topic,
		})
	case config.EventsNATS:
		return events.NewNATSPublisher(events.NATSConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		})
	default:
		return events.NewLogPublisher(log), nil
	}
}

// newGeocoder returns a nil interface when no maps key is set, so map
// features report that they are not configured.
func newGeocoder(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) (geocoding.Geocoder, func()) {
	if !cfg.MapsConfigured() {
		return nil, func() {}
	}

	svcCfg := geocoding.ServiceConfig{
		Provider: googlemaps.NewClient(googlemaps.ClientConfig{
			APIKey:   cfg.Maps.APIKey,
			Language: cfg.Maps.Language,
			Registry: registry,
			Logger:   log,
		}),
		Logger:   log,
		CacheTTL: cfg.Geocoding.CacheTTL,
	}

	closeFn := func() {}
	if cfg.Geocoding.ValkeyAddr != "" {
		cache, err := valkeycache.New(cfg.Geocoding.ValkeyAddr, 0)
		if err != nil {
			log.Warn().Err(err).Msg("valkey unavailable, geocoding cache is process-local")
		} else {
			svcCfg.Shared = cache
			closeFn = cache.Close
		}
	}
	return geocoding.NewService(svcCfg), closeFn
}

func sweepSessions(ctx context.Context, store *segment.Store, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}
