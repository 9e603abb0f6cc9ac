package routing

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/validation"
	"github.com/tacnavial/tacnavial/pkg/polyline"
)

// DefaultNearbyMeters is how close an obstruction must be to a route to count
// against it.
const DefaultNearbyMeters = 60.0

// Directions is satisfied by both Service and a bare Provider.
type Directions interface {
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
}

// ObstructionLister supplies the obstructions shown next to planned routes.
type ObstructionLister interface {
	List(ctx context.Context) ([]models.Obstruction, error)
}

// PlannerConfig holds the dependencies of the route planner.
type PlannerConfig struct {
	Directions   Directions
	Geocoder     geocoding.Geocoder // nil when the maps API key is missing
	Region       geocoding.Region
	Obstructions ObstructionLister
	Logger       zerolog.Logger

	// NearbyMeters is the obstruction proximity radius (default: DefaultNearbyMeters).
	NearbyMeters float64
}

// Planner resolves two places and asks for driving directions between them.
type Planner struct {
	directions   Directions
	geocoder     geocoding.Geocoder
	region       geocoding.Region
	obstructions ObstructionLister
	logger       zerolog.Logger
	nearbyMeters float64
}

// NewPlanner creates a route planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	nearby := cfg.NearbyMeters
	if nearby <= 0 {
		nearby = DefaultNearbyMeters
	}
	region := cfg.Region
	if region.Code == "" && region.Bounds.IsZero() {
		region = geocoding.TacnaRegion
	}
	return &Planner{
		directions:   cfg.Directions,
		geocoder:     cfg.Geocoder,
		region:       region,
		obstructions: cfg.Obstructions,
		logger:       cfg.Logger,
		nearbyMeters: nearby,
	}
}

// PlaceError reports which endpoint could not be resolved.
type PlaceError struct {
	Which   string // "origin" or "destination"
	Address string
	Err     error
}

func (e *PlaceError) Error() string {
	return fmt.Sprintf("resolving %s %q: %v", e.Which, e.Address, e.Err)
}

func (e *PlaceError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when the planner request is incomplete.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Plan resolves both endpoints and returns the driving alternatives between
// them, each annotated with the obstructions lying along it.
func (p *Planner) Plan(ctx context.Context, req models.DirectionsRequest) (*models.DirectionsResponse, error) {
	res := validation.Result{Valid: true}
	checkPlace("origin", req.Origin, &res)
	checkPlace("destination", req.Destination, &res)
	if !res.Valid {
		return nil, &ValidationError{Errors: res.Errors}
	}

	origin, err := p.resolve(ctx, "origin", req.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := p.resolve(ctx, "destination", req.Destination)
	if err != nil {
		return nil, err
	}

	directions, err := p.directions.GetDirections(ctx, DirectionsRequest{
		Origin:          origin,
		Destination:     destination,
		Profile:         ProfileDriving,
		MaxAlternatives: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("getting directions: %w", err)
	}

	active, err := p.activeObstructions(ctx)
	if err != nil {
		return nil, err
	}

	out := &models.DirectionsResponse{
		Origin:             toCoordinates(origin),
		Destination:        toCoordinates(destination),
		Routes:             make([]models.DirectionsRoute, 0, len(directions.Routes)),
		Provider:           directions.Provider,
		ActiveObstructions: len(active),
		FetchedAt:          models.Timestamp(directions.FetchedAt),
	}
	for _, r := range directions.Routes {
		out.Routes = append(out.Routes, p.toAPIRoute(r, active))
	}

	p.logger.Debug().
		Stringer("origin", origin).
		Stringer("destination", destination).
		Int("routes", len(out.Routes)).
		Int("active_obstructions", out.ActiveObstructions).
		Msg("route planned")

	return out, nil
}

func checkPlace(field string, place models.Place, res *validation.Result) {
	if place.IsEmpty() {
		res.Add(field, "required", "is required")
		return
	}
	if place.Coordinates != nil {
		res.Merge(validation.Coordinates(field+".coordinates", *place.Coordinates))
	}
}

func (p *Planner) resolve(ctx context.Context, which string, place models.Place) (geo.Point, error) {
	if place.Coordinates != nil {
		return geo.Point{Lat: place.Coordinates.Lat, Lng: place.Coordinates.Lng}, nil
	}
	if p.geocoder == nil {
		return geo.Point{}, &PlaceError{Which: which, Address: place.Address, Err: geocoding.ErrNotConfigured}
	}

	result, err := p.geocoder.Geocode(ctx, geocoding.Request{Address: place.Address, Region: p.region})
	if err != nil {
		return geo.Point{}, &PlaceError{Which: which, Address: place.Address, Err: err}
	}
	return result.Point, nil
}

func (p *Planner) activeObstructions(ctx context.Context) ([]models.Obstruction, error) {
	if p.obstructions == nil {
		return nil, nil
	}
	items, err := p.obstructions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing obstructions: %w", err)
	}
	return items, nil
}

func (p *Planner) toAPIRoute(r Route, active []models.Obstruction) models.DirectionsRoute {
	out := models.DirectionsRoute{
		Polyline:        r.GeometryPolyline,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Summary:         r.Summary,
	}

	if r.GeometryPolyline == "" {
		return out
	}
	line, err := polyline.Decode(r.GeometryPolyline)
	if err != nil {
		// The route is still usable without a path.
		p.logger.Warn().Err(err).Msg("decoding route geometry")
		return out
	}

	out.Path = make([]models.Coordinates, 0, len(line))
	for _, pt := range line {
		out.Path = append(out.Path, models.Coordinates{Lat: pt.Lat(), Lng: pt.Lon()})
	}
	for i := range active {
		if p.near(line, &active[i]) {
			out.NearbyObstructions++
		}
	}
	return out
}

// near checks a point obstruction directly and a segment at both ends and
// its midpoint.
func (p *Planner) near(line orb.LineString, o *models.Obstruction) bool {
	start := geo.Point{Lat: o.Coordinates.Lat, Lng: o.Coordinates.Lng}
	candidates := []geo.Point{start}
	if o.EndCoordinates != nil {
		end := geo.Point{Lat: o.EndCoordinates.Lat, Lng: o.EndCoordinates.Lng}
		candidates = append(candidates, end, geo.Midpoint(start, end))
	}
	for _, c := range candidates {
		if polyline.Near(line, c.Orb(), p.nearbyMeters) {
			return true
		}
	}
	return false
}

func toCoordinates(p geo.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Lat, Lng: p.Lng}
}
