package models

// ObstructionType classifies a reported obstruction.
type ObstructionType string

const (
	ObstructionConstruction ObstructionType = "construction"
	ObstructionClosure      ObstructionType = "closure"
	ObstructionEvent        ObstructionType = "event"
	ObstructionAccident     ObstructionType = "accident"
	ObstructionOther        ObstructionType = "other"
)

// ObstructionTypes lists every accepted obstruction type in display order.
var ObstructionTypes = []ObstructionType{
	ObstructionConstruction,
	ObstructionClosure,
	ObstructionEvent,
	ObstructionAccident,
	ObstructionOther,
}

// Obstruction is a reported road hazard. EndCoordinates is present only for
// line segments.
type Obstruction struct {
	ID             string          `json:"id"`
	Coordinates    Coordinates     `json:"coordinates"`
	EndCoordinates *Coordinates    `json:"endCoordinates,omitempty"`
	Type           ObstructionType `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	AddedAt        Timestamp       `json:"addedAt"`
}

// IsSegment reports whether the obstruction spans two points.
func (o *Obstruction) IsSegment() bool {
	return o.EndCoordinates != nil
}

// ObstructionCreateRequest is the body of POST /v1/obstructions.
type ObstructionCreateRequest struct {
	Coordinates    Coordinates     `json:"coordinates"`
	EndCoordinates *Coordinates    `json:"endCoordinates,omitempty"`
	Type           ObstructionType `json:"type" validate:"required,oneof=construction closure event accident other"`
	Title          string          `json:"title" validate:"min=5,max=100"`
	Description    string          `json:"description" validate:"min=10,max=500"`
}

// RemoveResult reports whether a removal deleted anything.
type RemoveResult struct {
	Success bool `json:"success"`
}

// ObstructionList is the body of GET /v1/obstructions.
type ObstructionList struct {
	Items []Obstruction `json:"items"`
}
