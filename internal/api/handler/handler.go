// Package handler provides HTTP handlers for the TacnaVial API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/middleware"
	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/comment"
	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/mapview"
	"github.com/tacnavial/tacnavial/internal/obstruction"
	"github.com/tacnavial/tacnavial/internal/route"
	"github.com/tacnavial/tacnavial/internal/routing"
	"github.com/tacnavial/tacnavial/internal/segment"
)

// ObstructionService is the obstruction store as the handlers use it.
type ObstructionService interface {
	List(ctx context.Context) ([]models.Obstruction, error)
	Add(ctx context.Context, input *models.ObstructionCreateRequest) (*models.Obstruction, error)
	Remove(ctx context.Context, id string) (*models.RemoveResult, error)
	Count(ctx context.Context) (int, error)
}

// CommentService is the comment store as the handlers use it.
type CommentService interface {
	List(ctx context.Context) ([]models.Comment, error)
	Submit(ctx context.Context, input *models.CommentSubmitRequest) (*models.Comment, error)
}

// RouteService is the route store as the handlers use it.
type RouteService interface {
	List(ctx context.Context) ([]models.Route, error)
	Toggle(ctx context.Context, id string) (*models.Route, error)
}

// Planner computes driving directions.
type Planner interface {
	Plan(ctx context.Context, req models.DirectionsRequest) (*models.DirectionsResponse, error)
}

var (
	_ ObstructionService = (*obstruction.Service)(nil)
	_ CommentService     = (*comment.Service)(nil)
	_ RouteService       = (*route.Service)(nil)
	_ Planner            = (*routing.Planner)(nil)
)

// writeError maps domain errors onto problem responses. Anything it does not
// recognise is logged and answered with a 500.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	if fields, ok := fieldErrors(err); ok {
		response.BadRequest(w, r, "validation failed", fields)
		return
	}

	var (
		placeErr   *routing.PlaceError
		segmentErr *segment.GeocodeError
	)

	switch {
	case errors.Is(err, mapview.ErrNotConfigured), errors.Is(err, geocoding.ErrNotConfigured):
		response.NotConfigured(w, r, mapview.ErrNotConfigured.Error())
	case errors.Is(err, geocoding.ErrProviderUnavailable),
		errors.Is(err, geocoding.ErrRateLimitExceeded),
		errors.Is(err, routing.ErrProviderUnavailable),
		errors.Is(err, routing.ErrRateLimitExceeded):
		logger.Warn().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("upstream provider unavailable")
		response.ServiceUnavailable(w, r, "map provider temporarily unavailable")
	case errors.As(err, &placeErr):
		response.Unprocessable(w, r, placeErr.Error(), []models.FieldError{{
			Field:   placeErr.Which + ".address",
			Message: "address could not be resolved",
			Code:    "not_found",
		}})
	case errors.As(err, &segmentErr):
		response.Unprocessable(w, r, segmentErr.Error(), []models.FieldError{{
			Field:   segmentErr.Which + "Address",
			Message: "address could not be resolved inside Tacna",
			Code:    "not_found",
		}})
	case errors.Is(err, geocoding.ErrNoResults), errors.Is(err, geocoding.ErrInvalidAddress):
		response.Unprocessable(w, r, err.Error(), nil)
	case errors.Is(err, routing.ErrNoRouteFound):
		response.Unprocessable(w, r, err.Error(), nil)
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, route.ErrRouteNotFound), errors.Is(err, segment.ErrSessionNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, route.ErrToggleUnsupported),
		errors.Is(err, segment.ErrInvalidTransition),
		errors.Is(err, segment.ErrDialogClosed),
		errors.Is(err, segment.ErrClosureNeedsEnd):
		response.Conflict(w, r, err.Error())
	default:
		logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func fieldErrors(err error) ([]models.FieldError, bool) {
	var (
		obsErr     *obstruction.ValidationError
		commentErr *comment.ValidationError
		planErr    *routing.ValidationError
		segErr     *segment.ValidationError
	)
	switch {
	case errors.As(err, &obsErr):
		return obsErr.Errors, true
	case errors.As(err, &commentErr):
		return commentErr.Errors, true
	case errors.As(err, &planErr):
		return planErr.Errors, true
	case errors.As(err, &segErr):
		return segErr.Errors, true
	}
	return nil, false
}
