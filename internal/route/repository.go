package route

import "context"

// TransitionFunc computes a new status from the current one.
type TransitionFunc func(current Status) (Status, error)

// Repository defines the interface for route persistence.
type Repository interface {
	// List returns all routes.
	List(ctx context.Context) ([]*Route, error)

	// Transition atomically replaces the status of a route with fn(current).
	// If fn returns an error the route is left untouched.
	Transition(ctx context.Context, id string, fn TransitionFunc) (*Route, error)

	// Save inserts or replaces a route. Used for seeding.
	Save(ctx context.Context, r *Route) error
}
