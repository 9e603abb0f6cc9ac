package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/geocoding"
)

// PlannerHandler handles the route planner and address lookup endpoints.
type PlannerHandler struct {
	planner  Planner
	geocoder geocoding.Geocoder
	region   geocoding.Region
	logger   zerolog.Logger
}

// PlannerHandlerConfig holds the dependencies of PlannerHandler. A nil
// Geocoder means the map provider is not configured.
type PlannerHandlerConfig struct {
	Planner  Planner
	Geocoder geocoding.Geocoder
	Region   geocoding.Region
	Logger   zerolog.Logger
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(cfg PlannerHandlerConfig) *PlannerHandler {
	region := cfg.Region
	if region.Code == "" {
		region = geocoding.TacnaRegion
	}
	return &PlannerHandler{
		planner:  cfg.Planner,
		geocoder: cfg.Geocoder,
		region:   region,
		logger:   cfg.Logger,
	}
}

// Directions handles POST /v1/planner/directions.
func (h *PlannerHandler) Directions(w http.ResponseWriter, r *http.Request) {
	var input models.DirectionsRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	out, err := h.planner.Plan(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, out)
}

// Geocode handles GET /v1/geocode?address=... with the service region bias.
func (h *PlannerHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		response.BadRequest(w, r, "address is required", []models.FieldError{
			{Field: "address", Message: "is required", Code: "required"},
		})
		return
	}
	if h.geocoder == nil {
		writeError(w, r, h.logger, geocoding.ErrNotConfigured)
		return
	}

	res, err := h.geocoder.Geocode(r.Context(), geocoding.Request{Address: address, Region: h.region})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeResponse{
		Query:            address,
		Coordinates:      models.Coordinates{Lat: res.Point.Lat, Lng: res.Point.Lng},
		FormattedAddress: res.FormattedAddress,
		PlaceID:          res.PlaceID,
	})
}
