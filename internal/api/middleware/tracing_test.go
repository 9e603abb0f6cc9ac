package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tacnavial/tacnavial/internal/api/middleware"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

func spanAttr(t *testing.T, span sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	t.Helper()
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	t.Fatalf("span %q has no attribute %s", span.Name(), key)
	return attribute.Value{}
}

// tracedRouter mounts the tracing middleware ahead of a chi router, the way
// the API does.
func tracedRouter(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Tracing("tacnavial-test"))
	r.Post("/v1/routes/{routeId}/toggle", func(w http.ResponseWriter, r *http.Request) {
		if !trace.SpanFromContext(r.Context()).SpanContext().IsValid() {
			panic("no span in handler context")
		}
		w.WriteHeader(status)
	})
	return r
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/R002/toggle", nil)
	tracedRouter(http.StatusConflict).ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /v1/routes/{routeId}/toggle", span.Name())
	assert.Equal(t, "/v1/routes/{routeId}/toggle", spanAttr(t, span, "http.route").AsString())
	assert.Equal(t, middleware.SurfaceAdmin, spanAttr(t, span, middleware.AttrSurface).AsString())
	assert.Equal(t, "R002", spanAttr(t, span, "tacnavial.routeId").AsString())
	assert.Equal(t, int64(http.StatusConflict), spanAttr(t, span, "http.response.status_code").AsInt64())
	assert.Contains(t, spanAttr(t, span, middleware.AttrRequestID).AsString(), "tv_")
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTracing_ContinuesPropagatedTrace(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/R001/toggle", nil)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "b7ad6b7169203331", spans[0].Parent().SpanID().String())
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/R001/toggle", nil)
	tracedRouter(http.StatusServiceUnavailable).ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Service Unavailable", spans[0].Status().Description)
}

func TestTracing_RateLimitedEvent(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/R001/toggle", nil)
	tracedRouter(http.StatusTooManyRequests).ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "rate_limited", spans[0].Events()[0].Name)
}

func TestTracing_OutsideRouterUsesPath(t *testing.T) {
	sr := setupTestTracer(t)

	h := middleware.Tracing("tacnavial-test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /v1/ops/health", spans[0].Name())
	assert.Equal(t, middleware.SurfaceOps, spanAttr(t, spans[0], middleware.AttrSurface).AsString())
}
