// Package route tracks the operational status of Tacna's transit lines.
package route

import (
	"errors"
	"fmt"
)

// Status is the operational status of a route.
type Status string

const (
	StatusOpen      Status = "open"
	StatusBlocked   Status = "blocked"
	StatusCongested Status = "congested"
)

var (
	// ErrRouteNotFound is returned when no route has the requested id.
	ErrRouteNotFound = errors.New("route not found")

	// ErrToggleUnsupported is returned when toggling a status that is not
	// open or blocked.
	ErrToggleUnsupported = errors.New("toggle not supported")
)

// Route is a transit line. Routes are seeded and never created or deleted at
// runtime; only their status changes.
type Route struct {
	ID              string
	Name            string
	PathDescription string
	Status          Status
}

// Clone returns a copy.
func (r *Route) Clone() *Route {
	cpy := *r
	return &cpy
}

// Toggled returns the status a toggle moves s to: open and blocked swap.
func Toggled(s Status) (Status, error) {
	switch s {
	case StatusOpen:
		return StatusBlocked, nil
	case StatusBlocked:
		return StatusOpen, nil
	default:
		return s, fmt.Errorf("%w for status %s", ErrToggleUnsupported, s)
	}
}
