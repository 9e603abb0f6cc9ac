package route

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/events"
	"github.com/tacnavial/tacnavial/internal/metrics"
)

// ServiceConfig holds the dependencies of the route service.
type ServiceConfig struct {
	Repository Repository
	Publisher  events.Publisher
	Logger     zerolog.Logger
}

// Service implements the route actions.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewService creates a new route service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}

// StatusChange is the payload of a route.status_changed event.
type StatusChange struct {
	RouteID string             `json:"routeId"`
	From    models.RouteStatus `json:"from"`
	To      models.RouteStatus `json:"to"`
}

// List returns all routes.
func (s *Service) List(ctx context.Context) ([]models.Route, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}

	out := make([]models.Route, 0, len(items))
	for _, r := range items {
		out = append(out, ToAPI(r))
	}
	return out, nil
}

// Toggle swaps a route between open and blocked. It returns ErrRouteNotFound
// for an unknown id and ErrToggleUnsupported for a congested route; in both
// cases nothing is changed.
func (s *Service) Toggle(ctx context.Context, id string) (*models.Route, error) {
	var from Status
	updated, err := s.repo.Transition(ctx, id, func(current Status) (Status, error) {
		from = current
		return Toggled(current)
	})
	switch {
	case errors.Is(err, ErrRouteNotFound):
		metrics.RouteToggles.WithLabelValues("not_found").Inc()
		return nil, err
	case errors.Is(err, ErrToggleUnsupported):
		metrics.RouteToggles.WithLabelValues("unsupported").Inc()
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("toggling route %s: %w", id, err)
	}

	metrics.RouteToggles.WithLabelValues(string(updated.Status)).Inc()

	change := StatusChange{RouteID: id, From: models.RouteStatus(from), To: models.RouteStatus(updated.Status)}
	perr := events.Emit(ctx, s.publisher, events.TypeRouteStatusChanged, id, change)
	metrics.EventsPublished.WithLabelValues(events.TypeRouteStatusChanged, metrics.Outcome(perr)).Inc()
	if perr != nil {
		s.logger.Warn().Err(perr).Str("route_id", id).Msg("failed to publish event")
	}

	s.logger.Info().
		Str("route_id", id).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Msg("route status toggled")

	result := ToAPI(updated)
	return &result, nil
}

// SortByID orders routes by id, as the admin table shows them.
func SortByID(routes []models.Route) {
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
}

// ToAPI converts a stored route to its wire form.
func ToAPI(r *Route) models.Route {
	return models.Route{
		ID:              r.ID,
		Name:            r.Name,
		PathDescription: r.PathDescription,
		Status:          models.RouteStatus(r.Status),
	}
}
