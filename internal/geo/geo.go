// Package geo provides the geographic primitives shared by the map, the
// obstruction editor and the geocoding layer.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Sentinel errors for coordinate handling.
var (
	ErrLatitudeOutOfRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")
	ErrNotANumber          = errors.New("value is not a number")
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Validate checks the point is within the valid latitude and longitude ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return ErrLatitudeOutOfRange
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

// Orb returns the point in orb's [lng, lat] order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FromOrb converts an orb point back to a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lng: p.Lon()}
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Midpoint returns the arithmetic midpoint between two points. Segments in
// this domain are a few hundred meters long so no great-circle correction
// is applied.
func Midpoint(a, b Point) Point {
	return Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

// Bounds is a rectangular region defined by its south-west and north-east corners.
type Bounds struct {
	SouthWest Point
	NorthEast Point
}

// Contains reports whether p lies inside the bounds (edges inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// IsZero reports whether the bounds are unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Tacna defaults.
var (
	TacnaCenter = Point{Lat: -18.0146, Lng: -70.2534}
	TacnaBounds = Bounds{
		SouthWest: Point{Lat: -18.08, Lng: -70.30},
		NorthEast: Point{Lat: -17.95, Lng: -70.15},
	}
)

// ParseCoordinate parses a decimal coordinate string.
func ParseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotANumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrNotANumber)
	}
	return v, nil
}

// ParsePoint parses and validates a latitude/longitude pair given as strings.
func ParsePoint(lat, lng string) (Point, error) {
	la, err := ParseCoordinate(lat)
	if err != nil {
		return Point{}, err
	}
	ln, err := ParseCoordinate(lng)
	if err != nil {
		return Point{}, err
	}
	p := Point{Lat: la, Lng: ln}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}
