package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
)

// ObstructionHandler handles obstruction endpoints.
type ObstructionHandler struct {
	service ObstructionService
	logger  zerolog.Logger
}

// NewObstructionHandler creates a new ObstructionHandler.
func NewObstructionHandler(service ObstructionService, logger zerolog.Logger) *ObstructionHandler {
	return &ObstructionHandler{service: service, logger: logger}
}

// ListObstructions handles GET /v1/obstructions.
func (h *ObstructionHandler) ListObstructions(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.ObstructionList{Items: items})
}

// CreateObstruction handles POST /v1/obstructions.
func (h *ObstructionHandler) CreateObstruction(w http.ResponseWriter, r *http.Request) {
	var input models.ObstructionCreateRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	created, err := h.service.Add(r.Context(), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/obstructions/"+created.ID, created)
}

// DeleteObstruction handles DELETE /v1/obstructions/{obstructionId}. An
// unknown id answers 200 with success=false.
func (h *ObstructionHandler) DeleteObstruction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "obstructionId")
	if id == "" {
		response.BadRequest(w, r, "obstructionId is required", nil)
		return
	}

	result, err := h.service.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}
