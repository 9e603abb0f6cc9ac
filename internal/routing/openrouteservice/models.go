package openrouteservice

// Wire shapes of POST /v2/directions/{profile}. Only the fields the planner
// reads are decoded.

type directionsBody struct {
	// Coordinates are [lng, lat] pairs.
	Coordinates  [][]float64          `json:"coordinates"`
	Alternatives *alternativesOptions `json:"alternative_routes,omitempty"`
	Instructions bool                 `json:"instructions"`
	Geometry     bool                 `json:"geometry"`
	Units        string               `json:"units"`
	Language     string               `json:"language"`
}

type alternativesOptions struct {
	// TargetCount includes the primary route.
	TargetCount int `json:"target_count"`
}

type directionsResult struct {
	Routes []resultRoute `json:"routes"`
}

type resultRoute struct {
	Summary struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"summary"`
	Segments []struct {
		Steps []resultStep `json:"steps"`
	} `json:"segments"`
	BBox     []float64 `json:"bbox"`
	Geometry string    `json:"geometry"`
	Warnings []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"warnings"`
}

type resultStep struct {
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Internal ORS codes that mean the points cannot be connected.
const (
	codeRouteNotFound    = 2009
	codePointNotRoutable = 2010
)
