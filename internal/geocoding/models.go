// Package geocoding resolves free-text addresses to coordinates with an
// explicit region bias.
package geocoding

import (
	"context"
	"errors"
	"strings"

	"github.com/tacnavial/tacnavial/internal/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrNoResults indicates the address could not be resolved. Callers treat
	// it as a recoverable user error.
	ErrNoResults = errors.New("no geocoding results")
	// ErrInvalidAddress indicates the query was empty or rejected by the provider.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrProviderUnavailable indicates the provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrNotConfigured indicates no API key was provided.
	ErrNotConfigured = errors.New("geocoding provider not configured")
)

// Region biases lookups toward a country and a bounding rectangle.
type Region struct {
	// Code is a ccTLD region code such as "pe".
	Code string
	// Bounds is the preferred viewport. Zero bounds disable the viewport bias.
	Bounds geo.Bounds
}

// TacnaRegion is the default region for lookups.
var TacnaRegion = Region{Code: "pe", Bounds: geo.TacnaBounds}

// Request is a geocoding query.
type Request struct {
	Address string
	Region  Region
}

// Result is a resolved address.
type Result struct {
	Point            geo.Point `json:"point"`
	FormattedAddress string    `json:"formattedAddress,omitempty"`
	PlaceID          string    `json:"placeId,omitempty"`
}

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, req Request) (*Result, error)
}

// Provider is a Geocoder backed by an external service.
type Provider interface {
	Geocoder
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from the geocoding provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// NormalizeAddress lowercases and collapses whitespace so equivalent queries
// share a cache entry.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
