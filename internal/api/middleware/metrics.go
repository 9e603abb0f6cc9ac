package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tacnavial/tacnavial/internal/api/middleware"

// Metrics records HTTP server instruments through OpenTelemetry. Domain
// counters live in the metrics package.
type Metrics struct {
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
	rejected metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Requests currently being served, by API surface"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.size, err = meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("tacnavial.http.rejected",
		metric.WithDescription("Requests refused before reaching a handler's domain logic (rate limit, media type, TLS)"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records duration, size and concurrency per request. Requests are
// labelled by chi route pattern so session and obstruction ids do not blow up
// cardinality.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			// The pattern is unknown until chi routes, so in-flight uses the raw path.
			pending := metric.WithAttributes(AttrSurface.String(Surface(r.URL.Path)))
			m.inFlight.Add(ctx, 1, pending)
			defer m.inFlight.Add(ctx, -1, pending)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			attrs := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", rec.status),
				AttrSurface.String(Surface(route)),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, rec.written, attrs)

			switch rec.status {
			case http.StatusTooManyRequests, http.StatusUnsupportedMediaType, http.StatusForbidden:
				m.rejected.Add(ctx, 1, attrs)
			}
		})
	}
}
