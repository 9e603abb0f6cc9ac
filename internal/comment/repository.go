package comment

import "context"

// Repository defines the interface for comment persistence.
type Repository interface {
	// List returns all comments in store order, most recently prepended first.
	List(ctx context.Context) ([]*Comment, error)

	// Prepend inserts a comment at the head of the list.
	Prepend(ctx context.Context, c *Comment) error
}
