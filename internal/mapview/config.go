// Package mapview projects obstructions and planned routes onto the map as
// GeoJSON and holds the base map configuration.
package mapview

import (
	"errors"
	"fmt"
	"math"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
)

// ErrNotConfigured is returned by every map feature while the maps API key
// is missing.
var ErrNotConfigured = errors.New("map provider not configured: set MAPS_API_KEY")

// Map defaults for Tacna.
const (
	DefaultMapID = "TACNA_TRANSIT_FLOW_MAP_ID"
	DefaultZoom  = 14
)

// Config is the base map configuration.
type Config struct {
	APIKey string
	MapID  string
	Center geo.Point
	Zoom   int
	Region geocoding.Region
}

// WithDefaults fills unset fields with the Tacna defaults. The API key is
// never defaulted.
func (c Config) WithDefaults() Config {
	if c.MapID == "" {
		c.MapID = DefaultMapID
	}
	if c.Center == (geo.Point{}) {
		c.Center = geo.TacnaCenter
	}
	if c.Zoom == 0 {
		c.Zoom = DefaultZoom
	}
	if c.Region.Code == "" && c.Region.Bounds.IsZero() {
		c.Region = geocoding.TacnaRegion
	}
	return c
}

// Check reports ErrNotConfigured when the API key is missing.
func (c Config) Check() error {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	return nil
}

// ToAPI returns what a map client needs to draw the base map.
func (c Config) ToAPI() (*models.MapConfig, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	c = c.WithDefaults()
	return &models.MapConfig{
		APIKey: c.APIKey,
		MapID:  c.MapID,
		Center: toCoordinates(c.Center),
		Zoom:   c.Zoom,
		Region: c.Region.Code,
		Bounds: models.MapBounds{
			SouthWest: toCoordinates(c.Region.Bounds.SouthWest),
			NorthEast: toCoordinates(c.Region.Bounds.NorthEast),
		},
	}, nil
}

// ClickToPoint turns a raw click payload into a validated point.
func ClickToPoint(lat, lng float64) (geo.Point, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return geo.Point{}, fmt.Errorf("click (%v, %v): %w", lat, lng, geo.ErrNotANumber)
	}
	p := geo.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return geo.Point{}, err
	}
	return p, nil
}

func toCoordinates(p geo.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Lat, Lng: p.Lng}
}
