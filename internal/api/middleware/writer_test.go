package middleware_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tacnavial/tacnavial/internal/api/middleware"
)

func TestSurface(t *testing.T) {
	cases := map[string]string{
		"/v1/ops/health":                               middleware.SurfaceOps,
		"/metrics":                                     middleware.SurfaceOps,
		"/v1/admin/segment-sessions/{sessionId}/start": middleware.SurfaceAdmin,
		"/v1/routes/{routeId}/toggle":                  middleware.SurfaceAdmin,
		"/v1/map/obstructions":                         middleware.SurfaceMap,
		"/v1/planner/directions":                       middleware.SurfaceMap,
		"/v1/geocode":                                  middleware.SurfaceMap,
		"/v1/obstructions/":                            middleware.SurfacePublic,
		"/v1/comments/":                                middleware.SurfacePublic,
		"/favicon.ico":                                 middleware.SurfaceUnknown,
	}
	for route, want := range cases {
		assert.Equal(t, want, middleware.Surface(route), route)
	}
}
