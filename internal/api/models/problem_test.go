package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_abc").
		WithDetail("title is too short").
		WithInstance("/v1/obstructions").
		WithErrors([]models.FieldError{{Field: "title", Message: "must be at least 5 characters", Code: "min"}})

	assert.Equal(t, "title is too short", p.Detail)
	assert.Equal(t, "/v1/obstructions", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "title", p.Errors[0].Field)
	assert.Equal(t, "Validation error: title is too short", p.Error())
}

func TestProblem_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	models.NewConflict("req_123", "toggle not supported for status congested").Write(rec)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_123", rec.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, models.ProblemTypeConflict, decoded.Type)
	assert.Equal(t, "toggle not supported for status congested", decoded.Detail)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *models.Problem
		wantStatus int
		wantType   string
	}{
		{"bad request", models.NewBadRequest("t", "d", nil), http.StatusBadRequest, models.ProblemTypeValidation},
		{"not found", models.NewNotFound("t", "d"), http.StatusNotFound, models.ProblemTypeNotFound},
		{"unprocessable", models.NewUnprocessable("t", "d", nil), http.StatusUnprocessableEntity, models.ProblemTypeUnprocessable},
		{"too many", models.NewTooManyRequests("t", "d"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{"internal", models.NewInternalError("t", "d"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", models.NewServiceUnavailable("t", "d"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
		{"not configured", models.NewNotConfigured("t", "d"), http.StatusServiceUnavailable, models.ProblemTypeNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.problem.Status)
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, "d", tt.problem.Detail)
		})
	}
}
