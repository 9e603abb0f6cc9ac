package geocoding_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
)

type stubProvider struct {
	calls   atomic.Int32
	results map[string]geo.Point
	err     error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Geocode(_ context.Context, req geocoding.Request) (*geocoding.Result, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	pt, ok := p.results[geocoding.NormalizeAddress(req.Address)]
	if !ok {
		return nil, &geocoding.Error{Provider: "stub", Code: "ZERO_RESULTS", Message: "address not found", Err: geocoding.ErrNoResults}
	}
	return &geocoding.Result{Point: pt, FormattedAddress: req.Address}, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func tacnaProvider() *stubProvider {
	return &stubProvider{results: map[string]geo.Point{
		"av. bolognesi 500": {Lat: -18.0061, Lng: -70.2479},
		"plaza de armas":    {Lat: -18.0146, Lng: -70.2534},
	}}
}

func TestService_Geocode_CachesResults(t *testing.T) {
	provider := tacnaProvider()
	svc := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})
	ctx := context.Background()

	res, err := svc.Geocode(ctx, geocoding.Request{Address: "Av. Bolognesi 500", Region: geocoding.TacnaRegion})
	require.NoError(t, err)
	assert.Equal(t, -18.0061, res.Point.Lat)

	// Same address with different spacing and case hits the cache.
	_, err = svc.Geocode(ctx, geocoding.Request{Address: "  av.  BOLOGNESI 500 ", Region: geocoding.TacnaRegion})
	require.NoError(t, err)

	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, 1, svc.CacheSize())
}

func TestService_Geocode_RegionIsPartOfKey(t *testing.T) {
	a := geocoding.CacheKey(geocoding.Request{Address: "Plaza de Armas", Region: geocoding.Region{Code: "pe"}})
	b := geocoding.CacheKey(geocoding.Request{Address: "Plaza de Armas", Region: geocoding.Region{Code: "cl"}})
	assert.NotEqual(t, a, b)
	assert.Equal(t, "geocode:pe:plaza de armas", a)
}

func TestService_Geocode_EmptyAddress(t *testing.T) {
	provider := tacnaProvider()
	svc := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	_, err := svc.Geocode(context.Background(), geocoding.Request{Address: "   "})
	require.ErrorIs(t, err, geocoding.ErrInvalidAddress)
	assert.Zero(t, provider.calls.Load())
}

func TestService_Geocode_NoResults(t *testing.T) {
	svc := geocoding.NewService(geocoding.ServiceConfig{Provider: tacnaProvider(), Logger: zerolog.Nop()})

	_, err := svc.Geocode(context.Background(), geocoding.Request{Address: "Calle Inventada 123"})
	assert.ErrorIs(t, err, geocoding.ErrNoResults)
}

func TestService_Geocode_StaleIfError(t *testing.T) {
	provider := tacnaProvider()
	now := time.Date(2024, 7, 28, 9, 0, 0, 0, time.UTC)
	svc := geocoding.NewService(geocoding.ServiceConfig{
		Provider:        provider,
		Logger:          zerolog.Nop(),
		CacheTTL:        time.Hour,
		StaleIfErrorTTL: 24 * time.Hour,
		Clock:           func() time.Time { return now },
	})
	ctx := context.Background()

	_, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	provider.err = errors.New("upstream down")

	res, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
	require.NoError(t, err, "stale result served on provider error")
	assert.Equal(t, -18.0146, res.Point.Lat)
	assert.Equal(t, int32(2), provider.calls.Load())

	now = now.Add(24 * time.Hour)
	_, err = svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
	assert.Error(t, err, "too old to serve")
}

func TestService_Geocode_StaleOnlyForTransientErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStale bool
	}{
		{"unavailable", &geocoding.Error{Provider: "stub", Code: "HTTP_503", Message: "down", Err: geocoding.ErrProviderUnavailable}, true},
		{"rate limited", &geocoding.Error{Provider: "stub", Code: "OVER_QUERY_LIMIT", Message: "quota", Err: geocoding.ErrRateLimitExceeded}, true},
		{"network", errors.New("connection reset"), true},
		{"no results", &geocoding.Error{Provider: "stub", Code: "ZERO_RESULTS", Message: "address not found", Err: geocoding.ErrNoResults}, false},
		{"invalid", &geocoding.Error{Provider: "stub", Code: "INVALID_REQUEST", Message: "bad query", Err: geocoding.ErrInvalidAddress}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := tacnaProvider()
			now := time.Date(2024, 7, 28, 9, 0, 0, 0, time.UTC)
			svc := geocoding.NewService(geocoding.ServiceConfig{
				Provider: provider,
				Logger:   zerolog.Nop(),
				Clock:    func() time.Time { return now },
			})
			ctx := context.Background()

			_, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
			require.NoError(t, err)

			now = now.Add(25 * time.Hour)
			provider.err = tt.err

			res, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
			if tt.wantStale {
				require.NoError(t, err)
				assert.Equal(t, -18.0146, res.Point.Lat)
				return
			}
			assert.Nil(t, res)
			assert.ErrorIs(t, err, errors.Unwrap(tt.err))
		})
	}
}

func TestService_Geocode_ReturnsCopies(t *testing.T) {
	svc := geocoding.NewService(geocoding.ServiceConfig{Provider: tacnaProvider(), Logger: zerolog.Nop()})
	ctx := context.Background()

	first, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
	require.NoError(t, err)
	first.Point.Lat = 0
	first.FormattedAddress = "changed"

	second, err := svc.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas"})
	require.NoError(t, err)
	assert.Equal(t, -18.0146, second.Point.Lat)
	assert.Equal(t, "Plaza de Armas", second.FormattedAddress)
}

type slowProvider struct {
	stubProvider
	release chan struct{}
}

func (p *slowProvider) Geocode(ctx context.Context, req geocoding.Request) (*geocoding.Result, error) {
	<-p.release
	return p.stubProvider.Geocode(ctx, req)
}

func TestService_Geocode_ConcurrentLookupsShareOneCall(t *testing.T) {
	provider := &slowProvider{stubProvider: stubProvider{results: tacnaProvider().results}, release: make(chan struct{})}
	svc := geocoding.NewService(geocoding.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Geocode(context.Background(), geocoding.Request{Address: "Plaza de Armas"})
			assert.NoError(t, err)
			if res != nil {
				assert.Equal(t, -70.2534, res.Point.Lng)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestService_Geocode_SharedCache(t *testing.T) {
	shared := &mapCache{data: map[string][]byte{}}
	ctx := context.Background()

	first := tacnaProvider()
	svcA := geocoding.NewService(geocoding.ServiceConfig{Provider: first, Shared: shared, Logger: zerolog.Nop()})
	_, err := svcA.Geocode(ctx, geocoding.Request{Address: "Plaza de Armas", Region: geocoding.TacnaRegion})
	require.NoError(t, err)
	assert.Contains(t, shared.data, "geocode:pe:plaza de armas")

	second := tacnaProvider()
	svcB := geocoding.NewService(geocoding.ServiceConfig{Provider: second, Shared: shared, Logger: zerolog.Nop()})
	res, err := svcB.Geocode(ctx, geocoding.Request{Address: "plaza de armas", Region: geocoding.TacnaRegion})
	require.NoError(t, err)
	assert.Equal(t, -70.2534, res.Point.Lng)
	assert.Zero(t, second.calls.Load(), "second instance is served from the shared cache")
}

func TestError_IsRetryable(t *testing.T) {
	assert.True(t, (&geocoding.Error{Err: geocoding.ErrRateLimitExceeded}).IsRetryable())
	assert.False(t, (&geocoding.Error{Err: geocoding.ErrNoResults}).IsRetryable())
	assert.Equal(t, "address not found: no geocoding results",
		(&geocoding.Error{Message: "address not found", Err: geocoding.ErrNoResults}).Error())
}
