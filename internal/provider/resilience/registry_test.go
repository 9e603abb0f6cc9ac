package resilience_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/provider/resilience"
)

func TestRegistry_Providers(t *testing.T) {
	registry := resilience.NewRegistry()
	resilience.NewClient(resilience.ClientConfig{Name: "openrouteservice", Policy: fastPolicy(0), Registry: registry})
	resilience.NewClient(resilience.ClientConfig{Name: "googlemaps", Policy: fastPolicy(0), Registry: registry})

	assert.Equal(t, 2, registry.ProviderCount())

	all := registry.Providers()
	require.Len(t, all, 2)
	assert.Equal(t, "googlemaps", all[0].Name)
	assert.Equal(t, "openrouteservice", all[1].Name)
	for _, h := range all {
		assert.Equal(t, gobreaker.StateClosed, h.State)
		assert.Equal(t, resilience.StatusOK, h.Status())
		assert.Nil(t, h.LastSuccessAt)
		assert.Nil(t, h.LastFailureAt)
	}

	_, ok := registry.Provider("here")
	assert.False(t, ok)
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	srv, _ := provider(t, http.StatusOK, http.StatusBadGateway)
	registry := resilience.NewRegistry()
	c := resilience.NewClient(resilience.ClientConfig{Name: "googlemaps", Policy: fastPolicy(0), Registry: registry})

	resp, err := get(t, c, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	h, ok := registry.Provider("googlemaps")
	require.True(t, ok)
	require.NotNil(t, h.LastSuccessAt)
	assert.Nil(t, h.LastFailureAt)

	resp, err = get(t, c, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	h, _ = registry.Provider("googlemaps")
	require.NotNil(t, h.LastFailureAt)
	assert.Contains(t, h.LastError, "502")
	assert.Equal(t, uint32(2), h.Counts.Requests)
	assert.Equal(t, uint32(1), h.Counts.TotalFailures)
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	registry := resilience.NewRegistry()
	resilience.NewClient(resilience.ClientConfig{Name: "googlemaps", Registry: registry})
	resilience.NewClient(resilience.ClientConfig{Name: "googlemaps", Registry: registry})

	assert.Equal(t, 1, registry.ProviderCount())
}

func TestProviderHealth_Status(t *testing.T) {
	cases := map[gobreaker.State]string{
		gobreaker.StateClosed:   resilience.StatusOK,
		gobreaker.StateHalfOpen: resilience.StatusDegraded,
		gobreaker.StateOpen:     resilience.StatusFail,
	}
	for state, want := range cases {
		assert.Equal(t, want, resilience.ProviderHealth{State: state}.Status(), state.String())
	}
}

func TestRegistry_ConcurrentSnapshotsWhileTripping(t *testing.T) {
	srv, _ := provider(t, http.StatusServiceUnavailable)
	policy := fastPolicy(0)
	policy.Breaker.MinRequests = 2
	registry := resilience.NewRegistry()
	c := resilience.NewClient(resilience.ClientConfig{Name: "openrouteservice", Policy: policy, Registry: registry})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if resp, err := get(t, c, srv.URL); err == nil {
				resp.Body.Close()
			}
		}()
		go func() {
			defer wg.Done()
			_ = registry.Providers()
		}()
	}
	wg.Wait()

	h, ok := registry.Provider("openrouteservice")
	require.True(t, ok)
	assert.Equal(t, resilience.StatusFail, h.Status())
}
