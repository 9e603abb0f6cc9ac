package route

import (
	"context"
	"sync"
)

// InMemoryRepository keeps routes in process memory, in seed order.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Route
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// List returns copies of all routes.
func (r *InMemoryRepository) List(_ context.Context) ([]*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Route, 0, len(r.items))
	for _, rt := range r.items {
		out = append(out, rt.Clone())
	}
	return out, nil
}

// Transition applies fn under the write lock.
func (r *InMemoryRepository) Transition(_ context.Context, id string, fn TransitionFunc) (*Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return nil, ErrRouteNotFound
	}
	next, err := fn(r.items[i].Status)
	if err != nil {
		return nil, err
	}
	r.items[i].Status = next
	return r.items[i].Clone(), nil
}

// Save inserts or replaces a route.
func (r *InMemoryRepository) Save(_ context.Context, rt *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(rt.ID); i >= 0 {
		r.items[i] = rt.Clone()
		return nil
	}
	r.items = append(r.items, rt.Clone())
	return nil
}

func (r *InMemoryRepository) index(id string) int {
	for i, rt := range r.items {
		if rt.ID == id {
			return i
		}
	}
	return -1
}

var _ Repository = (*InMemoryRepository)(nil)
