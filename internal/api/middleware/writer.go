package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Surfaces group API routes by audience. They label logs, spans and metrics.
const (
	SurfaceOps     = "ops"
	SurfaceAdmin   = "admin"
	SurfaceMap     = "map"
	SurfacePublic  = "public"
	SurfaceUnknown = "unknown"
)

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	wrote   bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wrote = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routePattern returns the matched chi pattern, or the raw path outside a chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// Surface classifies a route pattern or path.
func Surface(route string) string {
	switch {
	case strings.HasPrefix(route, "/v1/ops"), route == "/metrics":
		return SurfaceOps
	case strings.HasPrefix(route, "/v1/admin"), strings.HasSuffix(route, "/toggle"):
		return SurfaceAdmin
	case strings.HasPrefix(route, "/v1/map"), strings.HasPrefix(route, "/v1/planner"), strings.HasPrefix(route, "/v1/geocode"):
		return SurfaceMap
	case strings.HasPrefix(route, "/v1/"):
		return SurfacePublic
	default:
		return SurfaceUnknown
	}
}

// resourceParams are the chi URL parameters worth carrying into logs and spans.
var resourceParams = []string{"obstructionId", "routeId", "sessionId"}

// resourceIDs returns the resource identifiers chi extracted from the path.
func resourceIDs(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	var ids map[string]string
	for _, key := range resourceParams {
		if v := rctx.URLParam(key); v != "" {
			if ids == nil {
				ids = make(map[string]string, len(resourceParams))
			}
			ids[key] = v
		}
	}
	return ids
}
