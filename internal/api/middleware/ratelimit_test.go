package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tacnavial/tacnavial/internal/api/middleware"
)

func limited(cfg middleware.RateLimitConfig) http.Handler {
	return middleware.RateLimitByIP(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/planner/directions", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	h := limited(middleware.RateLimitConfig{Surface: middleware.SurfaceMap, RequestLimit: 3, WindowLength: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:12345").Code, "request %d", i+1)
	}

	rec := hit(h, "10.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	assert.Contains(t, rec.Body.String(), "3 map requests per 1m0s")
	assert.Contains(t, rec.Body.String(), "/v1/planner/directions")
}

func TestRateLimitByIP_SeparateClients(t *testing.T) {
	h := limited(middleware.RateLimitConfig{Surface: middleware.SurfaceAdmin, RequestLimit: 2, WindowLength: time.Minute})

	assert.Equal(t, http.StatusOK, hit(h, "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "172.16.0.1:2").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "172.16.0.1:3").Code)
	assert.Equal(t, http.StatusOK, hit(h, "172.16.0.2:1").Code)
}

func TestRateLimitByIP_ZeroDisables(t *testing.T) {
	h := limited(middleware.RateLimitConfig{Surface: middleware.SurfacePublic})
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "198.51.100.7:12345").Code)
	}
}

func TestNewRateLimits(t *testing.T) {
	defaults := middleware.NewRateLimits(0)
	assert.Equal(t, middleware.PublicRateLimit, defaults.Public)
	assert.Equal(t, 30, defaults.Map.RequestLimit)
	assert.Equal(t, 30, defaults.Admin.RequestLimit)
	assert.Equal(t, time.Minute, defaults.Admin.WindowLength)

	custom := middleware.NewRateLimits(250)
	assert.Equal(t, 250, custom.Public.RequestLimit)
	assert.Equal(t, middleware.MapRateLimit, custom.Map)

	off := middleware.NewRateLimits(-1)
	assert.Zero(t, off.Public.RequestLimit)
	assert.Zero(t, off.Map.RequestLimit)
	assert.Zero(t, off.Admin.RequestLimit)
}
