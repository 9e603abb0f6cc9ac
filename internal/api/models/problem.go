package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC7807 error document, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://tacnavial.pe/problems/validation-error"
	ProblemTypeNotFound        = "https://tacnavial.pe/problems/not-found"
	ProblemTypeConflict        = "https://tacnavial.pe/problems/conflict"
	ProblemTypeUnprocessable   = "https://tacnavial.pe/problems/unprocessable"
	ProblemTypeTooManyRequests = "https://tacnavial.pe/problems/too-many-requests"
	ProblemTypeInternal        = "https://tacnavial.pe/problems/internal-error"
	ProblemTypeUnavailable     = "https://tacnavial.pe/problems/service-unavailable"
	ProblemTypeNotConfigured   = "https://tacnavial.pe/problems/not-configured"
	ProblemTypeTLSRequired     = "https://tacnavial.pe/problems/tls-required"
	ProblemTypeUnsupportedBody = "https://tacnavial.pe/problems/unsupported-media-type"
)

// NewProblem creates a Problem.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets the detail message.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Error makes a decoded Problem usable as an error on the client side.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Title + ": " + p.Detail
	}
	return p.Title
}

// Write serializes the Problem to w.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).WithDetail(detail)
}

// NewConflict creates a 409 problem.
func NewConflict(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeConflict, "Conflict", http.StatusConflict, traceID).WithDetail(detail)
}

// NewUnprocessable creates a 422 problem, used when input is well-formed but
// cannot be resolved (for example an address the geocoder does not know).
func NewUnprocessable(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeUnprocessable, "Unprocessable request", http.StatusUnprocessableEntity, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).WithDetail(detail)
}

// NewServiceUnavailable creates a 503 problem for a failing upstream.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}

// NewNotConfigured creates a 503 problem for a feature whose configuration is missing.
func NewNotConfigured(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotConfigured, "Feature not configured", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}
