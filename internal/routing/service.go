package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tacnavial/tacnavial/internal/metrics"
)

// ServiceConfig configures the directions cache.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// CacheTTL is how long an answer is served without asking the provider
	// again (default 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL is how long an answer may still be served when the
	// provider fails (default 15 minutes).
	StaleIfErrorTTL time.Duration

	// CacheGridSize snaps endpoints to a grid in degrees before keying the
	// cache (default 0.001, about 110 m in Tacna). Clicks on the same block
	// share an answer.
	CacheGridSize float64
}

// Service answers directions requests from a cache in front of the provider.
// Identical concurrent requests share one provider call.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	cacheTTL      time.Duration
	staleTTL      time.Duration
	cacheGridSize float64
	now           func() time.Time

	calls singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
	sweptAt time.Time
}

type cacheEntry struct {
	response  *DirectionsResponse
	fetchedAt time.Time
}

// NewService creates a directions service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		cacheTTL:      cfg.CacheTTL,
		staleTTL:      cfg.StaleIfErrorTTL,
		cacheGridSize: cfg.CacheGridSize,
		now:           time.Now,
		entries:       make(map[string]cacheEntry),
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 5 * time.Minute
	}
	if s.staleTTL < s.cacheTTL {
		s.staleTTL = 3 * s.cacheTTL
	}
	if s.cacheGridSize <= 0 {
		s.cacheGridSize = 0.001
	}
	return s
}

// GetDirections returns driving alternatives between two points.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	if req.Profile == "" {
		req.Profile = ProfileDriving
	}
	if req.Origin.Validate() != nil {
		return nil, s.invalid("INVALID_ORIGIN", "invalid origin coordinates")
	}
	if req.Destination.Validate() != nil {
		return nil, s.invalid("INVALID_DESTINATION", "invalid destination coordinates")
	}

	key := s.cacheKey(req)
	if resp, ok := s.lookup(key, s.cacheTTL); ok {
		metrics.DirectionsRequests.WithLabelValues("hit").Inc()
		return resp, nil
	}

	// The shared call must not fail every waiter when the first caller leaves.
	v, err, shared := s.calls.Do(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, req)
	})
	if shared {
		s.logger.Debug().Str("cache_key", key).Msg("joined in-flight directions request")
	}
	if err != nil {
		return nil, err
	}
	return v.(*DirectionsResponse), nil
}

func (s *Service) fetch(ctx context.Context, key string, req DirectionsRequest) (*DirectionsResponse, error) {
	resp, err := s.provider.GetDirections(ctx, req)
	if err != nil {
		if stale, ok := s.lookup(key, s.staleTTL); ok && transient(err) {
			metrics.DirectionsRequests.WithLabelValues("stale").Inc()
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("directions provider failed, serving previous answer")
			return stale, nil
		}
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).
			Str("provider", s.provider.Name()).
			Str("origin", req.Origin.String()).
			Str("destination", req.Destination.String()).
			Msg("directions request failed")
		return nil, err
	}

	metrics.DirectionsRequests.WithLabelValues("miss").Inc()
	now := s.now()

	s.mu.Lock()
	s.entries[key] = cacheEntry{response: resp, fetchedAt: now}
	if now.Sub(s.sweptAt) >= s.cacheTTL {
		s.sweepLocked(now)
	}
	s.mu.Unlock()

	s.logger.Debug().Str("cache_key", key).Int("routes", len(resp.Routes)).Msg("cached directions")
	return resp, nil
}

// lookup returns an entry younger than maxAge.
func (s *Service) lookup(key string, maxAge time.Duration) (*DirectionsResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.fetchedAt) >= maxAge {
		return nil, false
	}
	return e.response, true
}

// sweepLocked drops entries too old to be served even as stale.
func (s *Service) sweepLocked(now time.Time) {
	s.sweptAt = now
	for key, e := range s.entries {
		if now.Sub(e.fetchedAt) >= s.staleTTL {
			delete(s.entries, key)
		}
	}
}

func (s *Service) invalid(code, message string) error {
	return &Error{Provider: s.provider.Name(), Code: code, Message: message, Err: ErrInvalidCoordinates}
}

// cacheKey is "<profile>:<lat>,<lng>:<lat>,<lng>" with both ends snapped to the grid.
func (s *Service) cacheKey(req DirectionsRequest) string {
	snap := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.4f,%.4f:%.4f,%.4f", req.Profile,
		snap(req.Origin.Lat), snap(req.Origin.Lng),
		snap(req.Destination.Lat), snap(req.Destination.Lng))
}

// InvalidateCache drops every cached answer.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]cacheEntry)
}

// CacheStats describes the cache contents.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// CacheStats counts fresh and stale-but-servable entries.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CacheStats{TotalEntries: len(s.entries), Provider: s.provider.Name()}
	now := s.now()
	for _, e := range s.entries {
		switch age := now.Sub(e.fetchedAt); {
		case age < s.cacheTTL:
			stats.FreshEntries++
		case age < s.staleTTL:
			stats.StaleEntries++
		}
	}
	return stats
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
