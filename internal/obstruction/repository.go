package obstruction

import "context"

// Repository persists obstructions. Implementations return copies the caller
// may freely modify.
type Repository interface {
	// List returns every obstruction in insertion order.
	List(ctx context.Context) ([]*Obstruction, error)

	// Add appends an obstruction.
	Add(ctx context.Context, o *Obstruction) error

	// Remove deletes the obstruction with the given id. It reports whether
	// anything was deleted; an unknown id is not an error.
	Remove(ctx context.Context, id string) (bool, error)
}
