package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/mapview"
)

// MapHandler serves the base map configuration and its GeoJSON layers.
type MapHandler struct {
	renderer     *mapview.Renderer
	obstructions ObstructionService
	planner      Planner
	logger       zerolog.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(renderer *mapview.Renderer, obstructions ObstructionService, planner Planner, logger zerolog.Logger) *MapHandler {
	return &MapHandler{
		renderer:     renderer,
		obstructions: obstructions,
		planner:      planner,
		logger:       logger,
	}
}

// Config handles GET /v1/map/config.
func (h *MapHandler) Config(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.renderer.Config().ToAPI()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, cfg)
}

// Obstructions handles GET /v1/map/obstructions.
func (h *MapHandler) Obstructions(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Config().Check(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items, err := h.obstructions.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	fc, err := h.renderer.Obstructions(items)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.GeoJSON(w, r, http.StatusOK, fc)
}

// Click handles POST /v1/map/click. It validates a raw click and echoes the
// coordinates a new point obstruction would be placed at.
func (h *MapHandler) Click(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Config().Check(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input models.SegmentClickRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	p, err := mapview.ClickToPoint(input.Lat, input.Lng)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, models.Coordinates{Lat: p.Lat, Lng: p.Lng})
}

// Directions handles POST /v1/map/directions: it plans a route and returns
// it as a GeoJSON overlay.
func (h *MapHandler) Directions(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Config().Check(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input models.DirectionsRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	planned, err := h.planner.Plan(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	fc, err := h.renderer.RouteOverlay(planned)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.GeoJSON(w, r, http.StatusOK, fc)
}
