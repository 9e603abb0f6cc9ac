// Package resilience guards calls to the map providers (Google Maps
// geocoding, OpenRouteService directions) with retries and a circuit breaker,
// and keeps a registry of their health for the status endpoint.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Policy controls how a provider client retries and when it stops calling.
type Policy struct {
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64

	InitialInterval time.Duration
	MaxInterval     time.Duration

	Breaker BreakerPolicy
}

// BreakerPolicy decides when a provider is considered down.
type BreakerPolicy struct {
	// MinRequests is the number of calls needed before the ratio is judged.
	MinRequests uint32

	// FailureRatio trips the breaker once reached.
	FailureRatio float64

	// OpenFor is how long calls are refused before a probe is let through.
	OpenFor time.Duration

	// HalfOpenProbes is the number of calls allowed while probing.
	HalfOpenProbes uint32
}

// DefaultPolicy suits interactive map lookups: a short timeout and quick
// retries, tripping once half of at least five calls failed.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 150 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker: BreakerPolicy{
			MinRequests:    5,
			FailureRatio:   0.5,
			OpenFor:        time.Minute,
			HalfOpenProbes: 1,
		},
	}
}

// withDefaults fills zero fields from DefaultPolicy. MaxRetries stays zero if
// set so, which disables retrying.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.Breaker.MinRequests == 0 {
		p.Breaker.MinRequests = d.Breaker.MinRequests
	}
	if p.Breaker.FailureRatio <= 0 {
		p.Breaker.FailureRatio = d.Breaker.FailureRatio
	}
	if p.Breaker.OpenFor <= 0 {
		p.Breaker.OpenFor = d.Breaker.OpenFor
	}
	if p.Breaker.HalfOpenProbes == 0 {
		p.Breaker.HalfOpenProbes = d.Breaker.HalfOpenProbes
	}
	return p
}

// ShouldTrip reports whether counts warrant opening the breaker.
func (b BreakerPolicy) ShouldTrip(counts gobreaker.Counts) bool {
	if counts.Requests < b.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= b.FailureRatio
}

func newBreaker[T any](name string, b BreakerPolicy, onChange func(string, gobreaker.State, gobreaker.State)) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          name,
		MaxRequests:   b.HalfOpenProbes,
		Timeout:       b.OpenFor,
		ReadyToTrip:   b.ShouldTrip,
		OnStateChange: onChange,
		// A caller giving up says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}
