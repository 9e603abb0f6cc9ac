package comment

import (
	"context"
	"sync"
)

// InMemoryRepository keeps comments in process memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Comment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// List returns copies of all comments.
func (r *InMemoryRepository) List(_ context.Context) ([]*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Comment, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c.Clone())
	}
	return out, nil
}

// Prepend stores a copy of c at the head of the list.
func (r *InMemoryRepository) Prepend(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*Comment, 0, len(r.items)+1)
	items = append(items, c.Clone())
	r.items = append(items, r.items...)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
