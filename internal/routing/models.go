// Package routing plans driving routes across Tacna. Paths come from an
// external directions provider. The planner then checks every alternative
// against the reported obstructions.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/tacnavial/tacnavial/internal/geo"
)

var (
	// ErrProviderUnavailable covers network failures, 5xx answers and an open breaker.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	ErrNoRouteFound        = errors.New("no route found between the given points")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Provider computes driving alternatives between two points.
type Provider interface {
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	Name() string
}

// RouteProfile selects the provider's vehicle model.
type RouteProfile string

// ProfileDriving is the only profile the planner uses.
const ProfileDriving RouteProfile = "driving-car"

// DirectionsRequest asks for routes from Origin to Destination.
type DirectionsRequest struct {
	Origin      geo.Point
	Destination geo.Point
	// Profile defaults to ProfileDriving.
	Profile RouteProfile
	// MaxAlternatives counts routes besides the primary one (default 2).
	MaxAlternatives int
}

// DirectionsResponse holds the alternatives in provider order, best first.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one alternative.
type Route struct {
	// GeometryPolyline is an encoded polyline at precision 5.
	GeometryPolyline string
	DistanceMeters   int
	DurationSeconds  int
	// Summary reads "via <street> y <street>".
	Summary      string
	BoundingBox  *BoundingBox
	Instructions []Instruction
}

// BoundingBox is the route extent in degrees.
type BoundingBox struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

// Instruction is one turn-by-turn step.
type Instruction struct {
	Text           string
	DistanceMeters int
	DurationSecs   int
	// Type is the provider's maneuver code.
	Type   int
	Street string
}

// Error is a provider failure carrying one of the sentinel errors above.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether asking again later may succeed.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// transient reports whether err may clear on its own, so a previous answer
// is still a better reply than the error.
func transient(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.IsRetryable()
	}
	return true
}
