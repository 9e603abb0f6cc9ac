// Package obstruction manages reported road obstructions: points and
// closure segments drawn by municipal administrators.
package obstruction

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tacnavial/tacnavial/internal/geo"
)

// Type classifies an obstruction.
type Type string

const (
	TypeConstruction Type = "construction"
	TypeClosure      Type = "closure"
	TypeEvent        Type = "event"
	TypeAccident     Type = "accident"
	TypeOther        Type = "other"
)

// Obstruction is a stored obstruction. Once created it is never modified,
// only removed.
type Obstruction struct {
	ID             string
	Coordinates    geo.Point
	EndCoordinates *geo.Point
	Type           Type
	Title          string
	Description    string
	AddedAt        time.Time
}

// IsSegment reports whether the obstruction spans two points.
func (o *Obstruction) IsSegment() bool {
	return o.EndCoordinates != nil
}

// Clone returns a deep copy.
func (o *Obstruction) Clone() *Obstruction {
	cpy := *o
	if o.EndCoordinates != nil {
		end := *o.EndCoordinates
		cpy.EndCoordinates = &end
	}
	return &cpy
}

// NewID returns an id of the form obs-<unix millis>-<base36 suffix>.
func NewID(now time.Time) string {
	return fmt.Sprintf("obs-%d-%s", now.UnixMilli(), strconv.FormatUint(uint64(uuid.New().ID()), 36))
}
