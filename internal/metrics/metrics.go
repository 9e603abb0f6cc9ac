// Package metrics exposes TacnaVial domain counters in Prometheus format.
// HTTP server metrics are recorded through OpenTelemetry by the api middleware.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tacnavial"

var (
	ObstructionsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "obstructions",
		Name:      "added_total",
		Help:      "Obstructions created, by type and shape",
	}, []string{"type", "shape"})

	ObstructionsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "obstructions",
		Name:      "removed_total",
		Help:      "Obstruction removal attempts, by outcome",
	}, []string{"outcome"})

	CommentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "comments",
		Name:      "submitted_total",
		Help:      "Comments submitted, by attachment",
	}, []string{"with_image", "with_location"})

	RouteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "routes",
		Name:      "toggles_total",
		Help:      "Route status toggles, by resulting status or rejection reason",
	}, []string{"result"})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "forms",
		Name:      "validation_failures_total",
		Help:      "Rejected form submissions",
	}, []string{"form"})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geocoding",
		Name:      "requests_total",
		Help:      "Geocoding lookups, by cache layer and outcome",
	}, []string{"source", "outcome"})

	DirectionsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "routing",
		Name:      "directions_total",
		Help:      "Directions lookups, by cache outcome: hit, miss, stale or error",
	}, []string{"outcome"})

	SegmentSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "segment",
		Name:      "sessions_active",
		Help:      "Open admin obstruction editor sessions",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to the bus, by type and outcome",
	}, []string{"type", "outcome"})

	ProviderCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "circuit_state",
		Help:      "Map provider circuit breaker state: 0 closed, 1 half-open, 2 open",
	}, []string{"provider"})

	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Handler panics turned into 500 responses, by API surface",
	}, []string{"surface"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Messages handled by the worker, by type and outcome",
	}, []string{"type", "outcome"})
)

// Outcome converts an error into a low-cardinality label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
