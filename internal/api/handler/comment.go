package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
)

// CommentHandler handles public comment endpoints.
type CommentHandler struct {
	service CommentService
	logger  zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service CommentService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{service: service, logger: logger}
}

// ListComments handles GET /v1/comments.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.CommentList{Items: items})
}

// SubmitComment handles POST /v1/comments.
func (h *CommentHandler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var input models.CommentSubmitRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}

	created, err := h.service.Submit(r.Context(), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "", created)
}
