package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tacnavial/tacnavial/internal/metrics"
)

// Cache is a cache shared between processes, consulted after the in-process
// one so API instances and the worker reuse each other's lookups.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ServiceConfig configures a Service. Only Provider is required.
type ServiceConfig struct {
	Provider Provider
	Shared   Cache
	Logger   zerolog.Logger

	// CacheTTL defaults to 24 hours. Street addresses rarely move.
	CacheTTL time.Duration
	// StaleIfErrorTTL is how long a result may still be served while the
	// provider fails (default 7 days).
	StaleIfErrorTTL time.Duration

	// Clock overrides time.Now.
	Clock func() time.Time
}

// Service resolves addresses through a two-level cache in front of the
// provider. Concurrent lookups of the same address share one provider call.
type Service struct {
	provider Provider
	shared   Cache
	logger   zerolog.Logger
	ttl      time.Duration
	staleTTL time.Duration
	now      func() time.Time

	calls singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
	sweptAt time.Time
}

type entry struct {
	result    *Result
	fetchedAt time.Time
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		provider: cfg.Provider,
		shared:   cfg.Shared,
		logger:   cfg.Logger,
		ttl:      cfg.CacheTTL,
		staleTTL: cfg.StaleIfErrorTTL,
		now:      cfg.Clock,
		entries:  make(map[string]entry),
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.staleTTL <= 0 {
		s.staleTTL = 7 * 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Geocode resolves req.Address inside req.Region.
func (s *Service) Geocode(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Address) == "" {
		metrics.GeocodeRequests.WithLabelValues("none", "invalid").Inc()
		return nil, &Error{Provider: s.provider.Name(), Code: "EMPTY_ADDRESS", Message: "address is required", Err: ErrInvalidAddress}
	}

	key := CacheKey(req)
	if res, ok := s.lookup(key, s.ttl); ok {
		metrics.GeocodeRequests.WithLabelValues("memory", "hit").Inc()
		return res, nil
	}

	v, err, _ := s.calls.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		if res, ok := s.fromShared(ctx, key); ok {
			metrics.GeocodeRequests.WithLabelValues("shared", "hit").Inc()
			s.remember(key, res)
			return res, nil
		}
		return s.fetch(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing one flight each get their own copy.
	res := *v.(*Result)
	return &res, nil
}

func (s *Service) fetch(ctx context.Context, req Request, key string) (*Result, error) {
	logger := s.logger.With().Str("address", req.Address).Str("region", req.Region.Code).Logger()

	res, err := s.provider.Geocode(ctx, req)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("provider", "error").Inc()
		if stale, ok := s.lookup(key, s.staleTTL); ok && transient(err) {
			logger.Warn().Err(err).Msg("geocoding failed, serving previous result")
			return stale, nil
		}
		logger.Warn().Err(err).Msg("geocoding failed")
		return nil, err
	}

	metrics.GeocodeRequests.WithLabelValues("provider", "ok").Inc()
	logger.Debug().Stringer("point", res.Point).Msg("address geocoded")
	s.remember(key, res)
	s.toShared(ctx, key, res)
	return res, nil
}

func (s *Service) lookup(key string, maxAge time.Duration) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.fetchedAt) >= maxAge {
		return nil, false
	}
	res := *e.result
	return &res, true
}

func (s *Service) remember(key string, res *Result) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *res
	s.entries[key] = entry{result: &stored, fetchedAt: now}

	// Sweep at most once per TTL, dropping what is too old even to be stale.
	if now.Sub(s.sweptAt) < s.ttl {
		return
	}
	s.sweptAt = now
	for k, e := range s.entries {
		if now.Sub(e.fetchedAt) >= s.staleTTL {
			delete(s.entries, k)
		}
	}
}

// transient reports whether err may clear up on retry. A definitive answer
// from the provider, such as no results, is never papered over with an
// older result.
func transient(err error) bool {
	var gerr *Error
	if !errors.As(err, &gerr) {
		return true
	}
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}

func (s *Service) fromShared(ctx context.Context, key string) (*Result, bool) {
	if s.shared == nil {
		return nil, false
	}
	b, ok, err := s.shared.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("shared cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("discarding corrupt shared cache entry")
		return nil, false
	}
	return &res, true
}

func (s *Service) toShared(ctx context.Context, key string, res *Result) {
	if s.shared == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.shared.Set(ctx, key, b, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("shared cache write failed")
	}
}

// CacheKey is "geocode:<region>:<normalized address>".
func CacheKey(req Request) string {
	return "geocode:" + strings.ToLower(req.Region.Code) + ":" + NormalizeAddress(req.Address)
}

// CacheSize counts in-process entries, stale ones included.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

var _ Geocoder = (*Service)(nil)
