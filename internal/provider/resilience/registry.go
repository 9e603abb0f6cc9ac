package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Provider health values, matching the status endpoint.
const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"
	StatusFail     = "FAIL"
)

// ProviderHealth is a snapshot of one provider.
type ProviderHealth struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
	// Trips counts how often the breaker opened since start.
	Trips int
}

// Status maps the breaker state: open is FAIL, half-open is DEGRADED.
func (h ProviderHealth) Status() string {
	switch h.State {
	case gobreaker.StateOpen:
		return StatusFail
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusOK
	}
}

// Registry tracks the provider clients of one process.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*entry
}

type entry struct {
	client      *Client
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
	trips       int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*entry)}
}

// Register adds c, replacing any client with the same name.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[c.Name()] = &entry{client: c}
}

func (r *Registry) recordSuccess(name string) {
	r.update(name, func(e *entry) { e.lastSuccess = time.Now() })
}

func (r *Registry) recordFailure(name string, err error) {
	r.update(name, func(e *entry) {
		e.lastFailure = time.Now()
		e.lastError = err.Error()
	})
}

func (r *Registry) recordTransition(name string, to gobreaker.State) {
	if to != gobreaker.StateOpen {
		return
	}
	r.update(name, func(e *entry) { e.trips++ })
}

func (r *Registry) update(name string, fn func(*entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.providers[name]; ok {
		fn(e)
	}
}

// Provider returns the health of one provider.
func (r *Registry) Provider(name string) (ProviderHealth, bool) {
	r.mu.RLock()
	e, ok := r.providers[name]
	var copied entry
	if ok {
		copied = *e
	}
	r.mu.RUnlock()
	if !ok {
		return ProviderHealth{}, false
	}
	return copied.snapshot(name), true
}

// Providers returns every provider's health, ordered by name.
func (r *Registry) Providers() []ProviderHealth {
	// Breaker state is read after releasing the lock: state change callbacks
	// run under the breaker's own lock and then take ours.
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	entries := make(map[string]entry, len(r.providers))
	for name, e := range r.providers {
		names = append(names, name)
		entries[name] = *e
	}
	r.mu.RUnlock()
	sort.Strings(names)

	out := make([]ProviderHealth, 0, len(names))
	for _, name := range names {
		e := entries[name]
		out = append(out, e.snapshot(name))
	}
	return out
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (e entry) snapshot(name string) ProviderHealth {
	return ProviderHealth{
		Name:          name,
		State:         e.client.State(),
		Counts:        e.client.Counts(),
		LastSuccessAt: timePtr(e.lastSuccess),
		LastFailureAt: timePtr(e.lastFailure),
		LastError:     e.lastError,
		Trips:         e.trips,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
