package models

// Place is a route planner endpoint: either free text or coordinates.
type Place struct {
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsEmpty reports whether neither an address nor coordinates were given.
func (p Place) IsEmpty() bool {
	return p.Address == "" && p.Coordinates == nil
}

// DirectionsRequest is the body of POST /v1/planner/directions.
type DirectionsRequest struct {
	Origin      Place `json:"origin"`
	Destination Place `json:"destination"`
}

// DirectionsRoute is one driving alternative.
type DirectionsRoute struct {
	Polyline           string        `json:"polyline"`
	DistanceMeters     int           `json:"distanceMeters"`
	DurationSeconds    int           `json:"durationSeconds"`
	Summary            string        `json:"summary,omitempty"`
	Path               []Coordinates `json:"path,omitempty"`
	NearbyObstructions int           `json:"nearbyObstructions"`
}

// DirectionsResponse is returned by the route planner.
type DirectionsResponse struct {
	Origin             Coordinates       `json:"origin"`
	Destination        Coordinates       `json:"destination"`
	Routes             []DirectionsRoute `json:"routes"`
	Provider           string            `json:"provider"`
	ActiveObstructions int               `json:"activeObstructions"`
	FetchedAt          Timestamp         `json:"fetchedAt"`
}

// GeocodeResponse is returned by GET /v1/geocode.
type GeocodeResponse struct {
	Query            string      `json:"query"`
	Coordinates      Coordinates `json:"coordinates"`
	FormattedAddress string      `json:"formattedAddress,omitempty"`
	PlaceID          string      `json:"placeId,omitempty"`
}
