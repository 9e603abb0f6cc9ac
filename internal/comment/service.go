package comment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/events"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/metrics"
	"github.com/tacnavial/tacnavial/internal/validation"
)

// ServiceConfig holds the dependencies of the comment service.
type ServiceConfig struct {
	Repository Repository
	Publisher  events.Publisher
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service implements the comment actions.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new comment service.
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

// List returns all comments in store order. Sorting for display is up to the caller.
func (s *Service) List(ctx context.Context) ([]models.Comment, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	out := make([]models.Comment, 0, len(items))
	for _, c := range items {
		out = append(out, ToAPI(c))
	}
	return out, nil
}

// Submit validates and stores a comment at the head of the list. The photo
// content is discarded; only a placeholder URL is kept.
func (s *Service) Submit(ctx context.Context, input *models.CommentSubmitRequest) (*models.Comment, error) {
	if res := validation.Comment(input); !res.Valid {
		metrics.ValidationFailures.WithLabelValues("comment").Inc()
		return nil, &ValidationError{Errors: res.Errors}
	}

	now := s.now().UTC()
	c := &Comment{
		ID:          NewID(now),
		Text:        input.Text,
		SubmittedAt: now,
	}
	if input.Image != nil {
		c.ImageURL = PlaceholderImageURL(input.Image.FileName)
	}
	// Zero counts as absent, like an empty form field.
	if input.Latitude != nil && input.Longitude != nil && *input.Latitude != 0 && *input.Longitude != 0 {
		c.Coordinates = &geo.Point{Lat: *input.Latitude, Lng: *input.Longitude}
	}

	if err := s.repo.Prepend(ctx, c); err != nil {
		return nil, fmt.Errorf("storing comment: %w", err)
	}

	metrics.CommentsSubmitted.WithLabelValues(
		strconv.FormatBool(c.ImageURL != ""),
		strconv.FormatBool(c.Coordinates != nil),
	).Inc()

	result := ToAPI(c)
	err := events.Emit(ctx, s.publisher, events.TypeCommentSubmitted, c.ID, result)
	metrics.EventsPublished.WithLabelValues(events.TypeCommentSubmitted, metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Warn().Err(err).Str("comment_id", c.ID).Msg("failed to publish event")
	}

	s.logger.Info().
		Str("comment_id", c.ID).
		Bool("with_image", c.ImageURL != "").
		Bool("with_location", c.Coordinates != nil).
		Msg("comment submitted")

	return &result, nil
}

// ToAPI converts a stored comment to its wire form.
func ToAPI(c *Comment) models.Comment {
	out := models.Comment{
		ID:          c.ID,
		Text:        c.Text,
		ImageURL:    c.ImageURL,
		SubmittedAt: models.Timestamp(c.SubmittedAt),
	}
	if c.Coordinates != nil {
		out.Coordinates = &models.Coordinates{Lat: c.Coordinates.Lat, Lng: c.Coordinates.Lng}
	}
	return out
}

// ValidationError carries the field errors of a rejected comment.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
