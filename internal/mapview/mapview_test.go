package mapview_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/mapview"
	"github.com/tacnavial/tacnavial/pkg/polyline"
)

var added = models.Timestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

func configured() *mapview.Renderer {
	return mapview.NewRenderer(mapview.Config{APIKey: "test-key"})
}

func TestConfig_MissingAPIKey(t *testing.T) {
	cfg := mapview.Config{}
	assert.ErrorIs(t, cfg.Check(), mapview.ErrNotConfigured)

	_, err := cfg.ToAPI()
	assert.ErrorIs(t, err, mapview.ErrNotConfigured)

	r := mapview.NewRenderer(cfg)
	_, err = r.Obstructions(nil)
	assert.ErrorIs(t, err, mapview.ErrNotConfigured)
	_, err = r.RouteOverlay(&models.DirectionsResponse{})
	assert.ErrorIs(t, err, mapview.ErrNotConfigured)
}

func TestConfig_Defaults(t *testing.T) {
	out, err := mapview.Config{APIKey: "k"}.ToAPI()
	require.NoError(t, err)

	assert.Equal(t, "k", out.APIKey)
	assert.Equal(t, mapview.DefaultMapID, out.MapID)
	assert.Equal(t, 14, out.Zoom)
	assert.Equal(t, models.Coordinates{Lat: -18.0146, Lng: -70.2534}, out.Center)
	assert.Equal(t, "pe", out.Region)
	assert.Equal(t, -18.08, out.Bounds.SouthWest.Lat)

	custom, err := mapview.Config{APIKey: "k", MapID: "custom", Zoom: 12}.ToAPI()
	require.NoError(t, err)
	assert.Equal(t, "custom", custom.MapID)
	assert.Equal(t, 12, custom.Zoom)
}

func TestClickToPoint(t *testing.T) {
	p, err := mapview.ClickToPoint(-18.01, -70.25)
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: -18.01, Lng: -70.25}, p)

	_, err = mapview.ClickToPoint(-18.01, 190)
	assert.ErrorIs(t, err, geo.ErrLongitudeOutOfRange)

	_, err = mapview.ClickToPoint(math.NaN(), -70.25)
	assert.ErrorIs(t, err, geo.ErrNotANumber)
}

func TestMarkerColor(t *testing.T) {
	assert.Equal(t, "#FBBF24", mapview.MarkerColor(models.ObstructionConstruction))
	assert.Equal(t, "#EF4444", mapview.MarkerColor(models.ObstructionClosure))
	assert.Equal(t, "#3B82F6", mapview.MarkerColor(models.ObstructionEvent))
	assert.Equal(t, "#F97316", mapview.MarkerColor(models.ObstructionAccident))
	assert.Equal(t, "#6B7280", mapview.MarkerColor(models.ObstructionOther))
	assert.Equal(t, "#6B7280", mapview.MarkerColor("unknown"))
}

func TestRenderer_Obstructions(t *testing.T) {
	items := []models.Obstruction{
		{
			ID:          "obs1",
			Coordinates: models.Coordinates{Lat: -18.0130, Lng: -70.2500},
			Type:        models.ObstructionConstruction,
			Title:       "Obras",
			Description: "Reparación de pista",
			AddedAt:     added,
		},
		{
			ID:             "obs2",
			Coordinates:    models.Coordinates{Lat: -18.0140, Lng: -70.2530},
			EndCoordinates: &models.Coordinates{Lat: -18.0120, Lng: -70.2510},
			Type:           models.ObstructionClosure,
			Title:          "Cierre",
			Description:    "Calle cerrada",
			AddedAt:        added,
		},
	}

	fc, err := configured().Obstructions(items)
	require.NoError(t, err)
	require.Len(t, fc.Features, 4)

	point := fc.Features[0]
	assert.Equal(t, orb.Point{-70.2500, -18.0130}, point.Geometry)
	assert.Equal(t, mapview.RolePoint, point.Properties["role"])
	assert.Equal(t, "#FBBF24", point.Properties["markerColor"])
	assert.Equal(t, "2024-05-01T10:00:00Z", point.Properties["addedAt"])

	line := fc.Features[1]
	assert.Equal(t, orb.LineString{{-70.2530, -18.0140}, {-70.2510, -18.0120}}, line.Geometry)
	assert.Equal(t, mapview.RoleSegment, line.Properties["role"])
	anchor := line.Properties["anchor"].([]float64)
	assert.InDelta(t, -70.2520, anchor[0], 1e-9)
	assert.InDelta(t, -18.0130, anchor[1], 1e-9)

	assert.Equal(t, mapview.RoleStart, fc.Features[2].Properties["role"])
	assert.Equal(t, mapview.RoleEnd, fc.Features[3].Properties["role"])
	assert.Equal(t, orb.Point{-70.2510, -18.0120}, fc.Features[3].Geometry)
	for _, f := range fc.Features[1:] {
		assert.Equal(t, "obs2", f.Properties["obstructionId"])
		assert.Equal(t, "#EF4444", f.Properties["markerColor"])
	}

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"FeatureCollection"`)
	assert.Contains(t, string(raw), `"type":"LineString"`)
}

func TestRenderer_EmptyObstructions(t *testing.T) {
	fc, err := configured().Obstructions(nil)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestRenderer_RouteOverlay(t *testing.T) {
	primary := orb.LineString{{-70.2534, -18.0146}, {-70.2500, -18.0100}, {-70.2450, -18.0050}}
	resp := &models.DirectionsResponse{
		Origin:      models.Coordinates{Lat: -18.0146, Lng: -70.2534},
		Destination: models.Coordinates{Lat: -18.0050, Lng: -70.2450},
		Routes: []models.DirectionsRoute{
			{Polyline: polyline.Encode(primary), DistanceMeters: 1500, Summary: "via Av. Bolognesi", NearbyObstructions: 1},
			{Path: []models.Coordinates{{Lat: -18.0146, Lng: -70.2534}, {Lat: -18.0050, Lng: -70.2450}}},
			{Polyline: ""},
		},
	}

	fc, err := configured().RouteOverlay(resp)
	require.NoError(t, err)
	require.Len(t, fc.Features, 4, "two routes plus origin and destination; the empty route is skipped")

	main := fc.Features[0]
	assert.Equal(t, false, main.Properties["alternative"])
	assert.Equal(t, mapview.RouteColor, main.Properties["strokeColor"])
	assert.Equal(t, 1, main.Properties["nearbyObstructions"])
	assert.Len(t, main.Geometry.(orb.LineString), 3)

	alt := fc.Features[1]
	assert.Equal(t, true, alt.Properties["alternative"])
	assert.Equal(t, mapview.AlternativeRouteColor, alt.Properties["strokeColor"])

	assert.Equal(t, mapview.RoleOrigin, fc.Features[2].Properties["role"])
	assert.Equal(t, orb.Point{-70.2450, -18.0050}, fc.Features[3].Geometry)
}

func TestRenderer_RouteOverlayMalformedPolyline(t *testing.T) {
	_, err := configured().RouteOverlay(&models.DirectionsResponse{
		Routes: []models.DirectionsRoute{{Polyline: "____"}},
	})
	assert.ErrorIs(t, err, polyline.ErrMalformed)
}
