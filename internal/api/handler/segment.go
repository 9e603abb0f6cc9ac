package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/api/response"
	"github.com/tacnavial/tacnavial/internal/mapview"
	"github.com/tacnavial/tacnavial/internal/segment"
)

// SegmentHandler exposes the admin obstruction editor over HTTP. Every
// action answers with the session snapshot.
type SegmentHandler struct {
	store  *segment.Store
	logger zerolog.Logger
}

// NewSegmentHandler creates a new SegmentHandler.
func NewSegmentHandler(store *segment.Store, logger zerolog.Logger) *SegmentHandler {
	return &SegmentHandler{store: store, logger: logger}
}

// CreateSession handles POST /v1/admin/segment-sessions.
func (h *SegmentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	editor := h.store.Create()
	response.Created(w, r, "/v1/admin/segment-sessions/"+editor.ID(), editor.Snapshot())
}

// GetSession handles GET /v1/admin/segment-sessions/{sessionId}.
func (h *SegmentHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.editor(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, editor.Snapshot())
}

// DeleteSession handles DELETE /v1/admin/segment-sessions/{sessionId}.
func (h *SegmentHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "sessionId")) {
		writeError(w, r, h.logger, segment.ErrSessionNotFound)
		return
	}
	response.NoContent(w, r)
}

// Start handles POST .../{sessionId}/start.
func (h *SegmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(e *segment.Editor) error { return e.StartSegmentByMap() })
}

// Click handles POST .../{sessionId}/click.
func (h *SegmentHandler) Click(w http.ResponseWriter, r *http.Request) {
	var input models.SegmentClickRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	p, err := mapview.ClickToPoint(input.Lat, input.Lng)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	h.act(w, r, func(e *segment.Editor) error { return e.MapClick(p) })
}

// DefineByAddresses handles POST .../{sessionId}/addresses.
func (h *SegmentHandler) DefineByAddresses(w http.ResponseWriter, r *http.Request) {
	var input models.SegmentAddressesRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	h.act(w, r, func(e *segment.Editor) error {
		return e.DefineByAddresses(r.Context(), input.StartAddress, input.EndAddress)
	})
}

// DefineByCoordinates handles POST .../{sessionId}/coordinates.
func (h *SegmentHandler) DefineByCoordinates(w http.ResponseWriter, r *http.Request) {
	var input models.SegmentCoordinatesRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	h.act(w, r, func(e *segment.Editor) error {
		return e.DefineByCoordinates(input.StartLat, input.StartLng, input.EndLat, input.EndLng)
	})
}

// Cancel handles POST .../{sessionId}/cancel.
func (h *SegmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(e *segment.Editor) error { return e.Cancel() })
}

// Close handles POST .../{sessionId}/close, dismissing the dialog.
func (h *SegmentHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(e *segment.Editor) error {
		e.Close()
		return nil
	})
}

// Submit handles POST .../{sessionId}/submit.
func (h *SegmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input models.SegmentSubmitRequest
	if !response.DecodeJSON(w, r, &input) {
		return
	}
	editor, ok := h.editor(w, r)
	if !ok {
		return
	}

	created, err := editor.Submit(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/obstructions/"+created.ID, models.SegmentSubmitResponse{
		Obstruction: *created,
		Session:     editor.Snapshot(),
	})
}

func (h *SegmentHandler) act(w http.ResponseWriter, r *http.Request, fn func(*segment.Editor) error) {
	editor, ok := h.editor(w, r)
	if !ok {
		return
	}
	if err := fn(editor); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, editor.Snapshot())
}

func (h *SegmentHandler) editor(w http.ResponseWriter, r *http.Request) (*segment.Editor, bool) {
	editor, err := h.store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return nil, false
	}
	return editor, true
}
