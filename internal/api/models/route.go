package models

// RouteStatus is the operational status of a transit route.
type RouteStatus string

const (
	RouteOpen      RouteStatus = "open"
	RouteBlocked   RouteStatus = "blocked"
	RouteCongested RouteStatus = "congested"
)

// Route is a transit line.
type Route struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	PathDescription string      `json:"pathDescription"`
	Status          RouteStatus `json:"status"`
}

// RouteList is the body of GET /v1/routes, sorted by id.
type RouteList struct {
	Items []Route `json:"items"`
}
