// Package main provides the entrypoint for the TacnaVial background worker.
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

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/config"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/geocoding/googlemaps"
	"github.com/tacnavial/tacnavial/internal/geocoding/valkeycache"
	"github.com/tacnavial/tacnavial/internal/metrics"
	"github.com/tacnavial/tacnavial/internal/provider/resilience"
	"github.com/tacnavial/tacnavial/internal/telemetry"
	"github.com/tacnavial/tacnavial/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "tacnavial-worker"

// consumer is satisfied by the Pub/Sub and NATS consumers.
type consumer interface {
	Start(ctx context.Context) error
	Close() error
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
		Str("events", cfg.Events.Backend).
		Msg("starting TacnaVial worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	registry := resilience.NewRegistry()
	geocoder, closeGeocoder := newGeocoder(cfg, registry, log)
	defer closeGeocoder()

	warmJob := worker.NewWarmJob(worker.WarmJobConfig{
		Config: worker.WarmConfig{
			Targets: worker.TargetsFromAddresses(cfg.Worker.WarmAddresses),
		},
		Geocoder: geocoder,
		Logger:   log,
	})
	dispatcher := worker.NewDispatcher(warmJob, log)

	bus, err := newConsumer(ctx, cfg, dispatcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect event bus")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      healthRouter(warmJob, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go runWarmLoop(ctx, warmJob, cfg.Worker.WarmInterval, log)

	if bus != nil {
		go func() {
			if err := bus.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	} else {
		log.Info().Msg("log event backend: no consumer, running scheduled warm only")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	if bus != nil {
		if err := bus.Close(); err != nil {
			log.Warn().Err(err).Msg("closing event consumer")
		}
	}

	log.Info().Msg("worker stopped")
}

func newConsumer(ctx context.Context, cfg *config.Config, d *worker.Dispatcher, log zerolog.Logger) (consumer, error) {
	switch cfg.Events.Backend {
	case config.EventsPubSub:
		return worker.NewPubSubConsumer(ctx, worker.PubSubConfig{
			ProjectID:        cfg.Events.ProjectID,
			SubscriptionName: cfg.Events.Subscription,
			Dispatcher:       d,
			Logger:           log,
		})
	case config.EventsNATS:
		return worker.NewNATSConsumer(worker.NATSConsumerConfig{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Durable:       cfg.Events.Subscription,
			Dispatcher:    d,
			Logger:        log,
		})
	default:
		return nil, nil
	}
}

// newGeocoder returns a nil interface when no maps key is set; the warm job
// then skips its runs.
func newGeocoder(cfg *config.Config, registry *resilience.Registry, log zerolog.Logger) (geocoding.Geocoder, func()) {
	if !cfg.MapsConfigured() {
		log.Warn().Msg("MAPS_API_KEY not set: geocode warming disabled")
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
	if cfg.Geocoding.ValkeyAddr == "" {
		log.Warn().Msg("geocoding.valkey_addr not set: warmed results stay in the worker process")
		return geocoding.NewService(svcCfg), func() {}
	}

	cache, err := valkeycache.New(cfg.Geocoding.ValkeyAddr, 0)
	if err != nil {
		log.Warn().Err(err).Msg("valkey unavailable, warmed results stay in the worker process")
		return geocoding.NewService(svcCfg), func() {}
	}
	svcCfg.Shared = cache
	return geocoding.NewService(svcCfg), cache.Close
}

func runWarmLoop(ctx context.Context, job *worker.WarmJob, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		log.Info().Msg("scheduled warm disabled")
		return
	}

	job.Run(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job.Run(ctx)
		}
	}
}

func healthRouter(job *worker.WarmJob, registry *resilience.Registry) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		details := job.MetricsSnapshot()
		details["version"] = Version
		details["providers"] = registry.ProviderCount()
		response.JSON(w, r, http.StatusOK, models.Health{
			Status:  models.HealthStatusOK,
			Time:    models.Timestamp(time.Now()),
			Details: details,
		})
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}
