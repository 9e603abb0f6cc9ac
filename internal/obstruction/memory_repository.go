package obstruction

import (
	"context"
	"sync"
)

// InMemoryRepository keeps obstructions in process memory. It is the default
// store and the one used by tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Obstruction
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// List returns copies of all obstructions.
func (r *InMemoryRepository) List(_ context.Context) ([]*Obstruction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Obstruction, 0, len(r.items))
	for _, o := range r.items {
		out = append(out, o.Clone())
	}
	return out, nil
}

// Add stores a copy of o.
func (r *InMemoryRepository) Add(_ context.Context, o *Obstruction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, o.Clone())
	return nil
}

// Remove filters out every obstruction with the given id.
func (r *InMemoryRepository) Remove(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.items)
	kept := r.items[:0]
	for _, o := range r.items {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < before; i++ {
		r.items[i] = nil
	}
	r.items = kept
	return len(r.items) < before, nil
}

var _ Repository = (*InMemoryRepository)(nil)
