package obstruction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/events"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/metrics"
	"github.com/tacnavial/tacnavial/internal/validation"
)

// ServiceConfig holds the dependencies of the obstruction service.
type ServiceConfig struct {
	Repository Repository
	Publisher  events.Publisher
	Logger     zerolog.Logger
	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Service implements the obstruction actions.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new obstruction service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       now,
	}
}

// List returns every obstruction.
func (s *Service) List(ctx context.Context) ([]models.Obstruction, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing obstructions: %w", err)
	}

	out := make([]models.Obstruction, 0, len(items))
	for _, o := range items {
		out = append(out, ToAPI(o))
	}
	return out, nil
}

// Add validates input, assigns an id and timestamp and stores the obstruction.
func (s *Service) Add(ctx context.Context, input *models.ObstructionCreateRequest) (*models.Obstruction, error) {
	if res := validation.Obstruction(input); !res.Valid {
		metrics.ValidationFailures.WithLabelValues("obstruction").Inc()
		return nil, &ValidationError{Errors: res.Errors}
	}

	now := s.now().UTC()
	o := &Obstruction{
		ID:          NewID(now),
		Coordinates: geo.Point{Lat: input.Coordinates.Lat, Lng: input.Coordinates.Lng},
		Type:        Type(input.Type),
		Title:       input.Title,
		Description: input.Description,
		AddedAt:     now,
	}
	if input.EndCoordinates != nil {
		o.EndCoordinates = &geo.Point{Lat: input.EndCoordinates.Lat, Lng: input.EndCoordinates.Lng}
	}

	if err := s.repo.Add(ctx, o); err != nil {
		return nil, fmt.Errorf("adding obstruction: %w", err)
	}

	shape := "point"
	if o.IsSegment() {
		shape = "segment"
	}
	metrics.ObstructionsAdded.WithLabelValues(string(o.Type), shape).Inc()

	result := ToAPI(o)
	s.emit(ctx, events.TypeObstructionAdded, o.ID, result)

	s.logger.Info().
		Str("obstruction_id", o.ID).
		Str("type", string(o.Type)).
		Str("shape", shape).
		Msg("obstruction added")

	return &result, nil
}

// Remove deletes an obstruction. Success is false when the id was unknown.
func (s *Service) Remove(ctx context.Context, id string) (*models.RemoveResult, error) {
	if id == "" {
		metrics.ObstructionsRemoved.WithLabelValues("not_found").Inc()
		return &models.RemoveResult{Success: false}, nil
	}

	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("removing obstruction %s: %w", id, err)
	}
	if !removed {
		metrics.ObstructionsRemoved.WithLabelValues("not_found").Inc()
		return &models.RemoveResult{Success: false}, nil
	}

	metrics.ObstructionsRemoved.WithLabelValues("removed").Inc()
	s.emit(ctx, events.TypeObstructionRemoved, id, nil)
	s.logger.Info().Str("obstruction_id", id).Msg("obstruction removed")

	return &models.RemoveResult{Success: true}, nil
}

// Count returns the number of stored obstructions.
func (s *Service) Count(ctx context.Context) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Service) emit(ctx context.Context, eventType, id string, data any) {
	err := events.Emit(ctx, s.publisher, eventType, id, data)
	metrics.EventsPublished.WithLabelValues(eventType, metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("obstruction_id", id).
			Msg("failed to publish event")
	}
}

// ToAPI converts a stored obstruction to its wire form.
func ToAPI(o *Obstruction) models.Obstruction {
	out := models.Obstruction{
		ID:          o.ID,
		Coordinates: models.Coordinates{Lat: o.Coordinates.Lat, Lng: o.Coordinates.Lng},
		Type:        models.ObstructionType(o.Type),
		Title:       o.Title,
		Description: o.Description,
		AddedAt:     models.Timestamp(o.AddedAt),
	}
	if o.EndCoordinates != nil {
		out.EndCoordinates = &models.Coordinates{Lat: o.EndCoordinates.Lat, Lng: o.EndCoordinates.Lng}
	}
	return out
}

// ValidationError carries the field errors of a rejected submission.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
