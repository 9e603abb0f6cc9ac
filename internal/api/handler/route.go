package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/route"
)

// RouteHandler handles transit route endpoints.
type RouteHandler struct {
	service RouteService
	logger  zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service RouteService, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{service: service, logger: logger}
}

// ListRoutes handles GET /v1/routes, sorted by id.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	route.SortByID(items)
	response.JSON(w, r, http.StatusOK, models.RouteList{Items: items})
}

// ToggleRoute handles POST /v1/routes/{routeId}/toggle. Unknown routes answer
// 404 and congested routes 409.
func (h *RouteHandler) ToggleRoute(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.Toggle(r.Context(), chi.URLParam(r, "routeId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}
