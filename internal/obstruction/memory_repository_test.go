package obstruction

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/geo"
)

func TestInMemoryRepository_CopiesOnWrite(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	end := geo.Point{Lat: -18.0135, Lng: -70.252}
	o := &Obstruction{ID: "obs2", Type: TypeClosure, EndCoordinates: &end}
	require.NoError(t, repo.Add(ctx, o))

	o.Title = "mutated after add"
	o.EndCoordinates.Lat = 0

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Title)
	assert.Equal(t, -18.0135, items[0].EndCoordinates.Lat)
}

func TestInMemoryRepository_PreservesInsertionOrder(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, id := range []string{"obs1", "obs2", "obs3"} {
		require.NoError(t, repo.Add(ctx, &Obstruction{ID: id}))
	}
	removed, err := repo.Remove(ctx, "obs2")
	require.NoError(t, err)
	assert.True(t, removed)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "obs1", items[0].ID)
	assert.Equal(t, "obs3", items[1].ID)
}

func TestInMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = repo.Add(ctx, &Obstruction{ID: fmt.Sprintf("obs-%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = repo.List(ctx)
		}()
	}
	wg.Wait()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}
