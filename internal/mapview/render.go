package mapview

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/pkg/polyline"
)

// Feature roles.
const (
	RolePoint       = "point"
	RoleStart       = "start"
	RoleEnd         = "end"
	RoleSegment     = "segment"
	RoleRoute       = "route"
	RoleOrigin      = "origin"
	RoleDestination = "destination"
)

var markerColors = map[models.ObstructionType]string{
	models.ObstructionConstruction: "#FBBF24",
	models.ObstructionClosure:      "#EF4444",
	models.ObstructionEvent:        "#3B82F6",
	models.ObstructionAccident:     "#F97316",
	models.ObstructionOther:        "#6B7280",
}

// Route overlay colors.
const (
	RouteColor            = "#2563EB"
	AlternativeRouteColor = "#9CA3AF"
)

// MarkerColor returns the marker color for an obstruction type.
func MarkerColor(t models.ObstructionType) string {
	if c, ok := markerColors[t]; ok {
		return c
	}
	return markerColors[models.ObstructionOther]
}

// Renderer projects domain data into GeoJSON layers. It refuses to render
// while the map is not configured.
type Renderer struct {
	cfg Config
}

// NewRenderer creates a renderer for the given map configuration.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg.WithDefaults()}
}

// Config returns the effective map configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Obstructions renders a point obstruction as one Point feature and a
// segment as a LineString plus its two endpoint markers.
func (r *Renderer) Obstructions(items []models.Obstruction) (*geojson.FeatureCollection, error) {
	if err := r.cfg.Check(); err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i := range items {
		o := &items[i]
		start := geo.Point{Lat: o.Coordinates.Lat, Lng: o.Coordinates.Lng}

		if !o.IsSegment() {
			fc.Append(obstructionFeature(o, start.Orb(), RolePoint, start))
			continue
		}

		end := geo.Point{Lat: o.EndCoordinates.Lat, Lng: o.EndCoordinates.Lng}
		anchor := geo.Midpoint(start, end)
		fc.Append(obstructionFeature(o, orb.LineString{start.Orb(), end.Orb()}, RoleSegment, anchor))
		fc.Append(obstructionFeature(o, start.Orb(), RoleStart, anchor))
		fc.Append(obstructionFeature(o, end.Orb(), RoleEnd, anchor))
	}
	return fc, nil
}

func obstructionFeature(o *models.Obstruction, g orb.Geometry, role string, anchor geo.Point) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = fmt.Sprintf("%s:%s", o.ID, role)
	f.Properties["obstructionId"] = o.ID
	f.Properties["role"] = role
	f.Properties["type"] = string(o.Type)
	f.Properties["title"] = o.Title
	f.Properties["description"] = o.Description
	f.Properties["addedAt"] = o.AddedAt.Time().UTC().Format(time.RFC3339)
	f.Properties["markerColor"] = MarkerColor(o.Type)
	f.Properties["anchor"] = []float64{anchor.Lng, anchor.Lat}
	return f
}

// RouteOverlay renders each planned route as a LineString, first route
// primary and the rest flagged as alternatives, plus origin and destination
// markers.
func (r *Renderer) RouteOverlay(resp *models.DirectionsResponse) (*geojson.FeatureCollection, error) {
	if err := r.cfg.Check(); err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i, route := range resp.Routes {
		line, err := routeLine(route)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		if len(line) < 2 {
			continue
		}

		f := geojson.NewFeature(line)
		f.ID = fmt.Sprintf("route:%d", i)
		f.Properties["role"] = RoleRoute
		f.Properties["index"] = i
		f.Properties["alternative"] = i > 0
		f.Properties["distanceMeters"] = route.DistanceMeters
		f.Properties["durationSeconds"] = route.DurationSeconds
		f.Properties["summary"] = route.Summary
		f.Properties["nearbyObstructions"] = route.NearbyObstructions
		if i == 0 {
			f.Properties["strokeColor"] = RouteColor
		} else {
			f.Properties["strokeColor"] = AlternativeRouteColor
		}
		fc.Append(f)
	}

	origin := geojson.NewFeature(orb.Point{resp.Origin.Lng, resp.Origin.Lat})
	origin.ID = RoleOrigin
	origin.Properties["role"] = RoleOrigin
	fc.Append(origin)

	destination := geojson.NewFeature(orb.Point{resp.Destination.Lng, resp.Destination.Lat})
	destination.ID = RoleDestination
	destination.Properties["role"] = RoleDestination
	fc.Append(destination)

	return fc, nil
}

func routeLine(route models.DirectionsRoute) (orb.LineString, error) {
	if len(route.Path) > 0 {
		line := make(orb.LineString, 0, len(route.Path))
		for _, c := range route.Path {
			line = append(line, orb.Point{c.Lng, c.Lat})
		}
		return line, nil
	}
	return polyline.Decode(route.Polyline)
}
