package route_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/route"
)

func seeded(t *testing.T) *route.Service {
	t.Helper()
	repo := route.NewInMemoryRepository()
	ctx := context.Background()
	for _, r := range []*route.Route{
		{ID: "R001", Name: "Ruta A - Expreso Centro", Status: route.StatusOpen},
		{ID: "R002", Name: "Ruta B - Circunvalación", Status: route.StatusCongested},
		{ID: "R003", Name: "Ruta C - Norte Directo", Status: route.StatusBlocked},
	} {
		require.NoError(t, repo.Save(ctx, r))
	}
	return route.NewService(route.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
}

func statusOf(t *testing.T, svc *route.Service, id string) models.RouteStatus {
	t.Helper()
	routes, err := svc.List(context.Background())
	require.NoError(t, err)
	for _, r := range routes {
		if r.ID == id {
			return r.Status
		}
	}
	t.Fatalf("route %s not found", id)
	return ""
}

func TestService_Toggle_OpenBlocked(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	r, err := svc.Toggle(ctx, "R001")
	require.NoError(t, err)
	assert.Equal(t, models.RouteBlocked, r.Status)
	assert.Equal(t, models.RouteBlocked, statusOf(t, svc, "R001"))

	r, err = svc.Toggle(ctx, "R001")
	require.NoError(t, err)
	assert.Equal(t, models.RouteOpen, r.Status)

	r, err = svc.Toggle(ctx, "R003")
	require.NoError(t, err)
	assert.Equal(t, models.RouteOpen, r.Status)
}

func TestService_Toggle_Congested(t *testing.T) {
	svc := seeded(t)

	r, err := svc.Toggle(context.Background(), "R002")
	require.ErrorIs(t, err, route.ErrToggleUnsupported)
	assert.Nil(t, r)
	assert.Equal(t, models.RouteCongested, statusOf(t, svc, "R002"))
}

func TestService_Toggle_UnknownID(t *testing.T) {
	svc := seeded(t)

	r, err := svc.Toggle(context.Background(), "R999")
	require.ErrorIs(t, err, route.ErrRouteNotFound)
	assert.Nil(t, r)

	routes, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}

func TestToggled(t *testing.T) {
	next, err := route.Toggled(route.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, route.StatusBlocked, next)

	_, err = route.Toggled(route.StatusCongested)
	assert.EqualError(t, err, "toggle not supported for status congested")
}

func TestSortByID(t *testing.T) {
	routes := []models.Route{{ID: "R003"}, {ID: "R001"}, {ID: "R002"}}
	route.SortByID(routes)
	assert.Equal(t, "R001", routes[0].ID)
	assert.Equal(t, "R003", routes[2].ID)
}

func TestInMemoryRepository_SaveReplaces(t *testing.T) {
	repo := route.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &route.Route{ID: "R001", Status: route.StatusOpen}))
	require.NoError(t, repo.Save(ctx, &route.Route{ID: "R001", Status: route.StatusBlocked}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, route.StatusBlocked, items[0].Status)

	items[0].Status = route.StatusOpen

	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, route.StatusBlocked, again[0].Status, "List must return copies")
}
