// Package response writes JSON, GeoJSON and problem+json answers for the
// HTTP handlers and decodes request bodies.
package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tacnavial/tacnavial/internal/api/middleware"
	"github.com/tacnavial/tacnavial/internal/api/models"
)

// MaxBodyBytes caps request bodies. Comment images arrive inline as data
// URLs, so the limit is generous.
const MaxBodyBytes = 8 << 20

const (
	contentTypeJSON    = "application/json"
	contentTypeGeoJSON = "application/geo+json"
)

// JSON writes data as JSON with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, contentTypeJSON, status, data)
}

// GeoJSON writes a FeatureCollection or Feature.
func GeoJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, contentTypeGeoJSON, status, data)
}

// Created writes a 201 with an optional Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	write(w, r, contentTypeJSON, http.StatusCreated, data)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	echoRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func write(w http.ResponseWriter, r *http.Request, contentType string, status int, data any) {
	echoRequestID(w, r)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func echoRequestID(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}
}

// DecodeJSON decodes the request body into v. On failure it writes a 400
// problem and returns false. An empty body decodes to the zero value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		BadRequest(w, r, "request body too large", nil)
	} else {
		BadRequest(w, r, "invalid JSON body", nil)
	}
	return false
}

// Error writes problem with its instance set to the request path.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.WithInstance(r.URL.Path).Write(w)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400 with optional field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, fields []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, fields))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// Conflict writes a 409, used when a state transition is not allowed.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(traceID(r), detail))
}

// Unprocessable writes a 422 for requests that decoded but failed validation.
func Unprocessable(w http.ResponseWriter, r *http.Request, detail string, fields []models.FieldError) {
	Error(w, r, models.NewUnprocessable(traceID(r), detail, fields))
}

// InternalError writes a 500. detail must not leak internals.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// ServiceUnavailable writes a 503 for an upstream provider outage.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}

// NotConfigured writes a 503 for a feature whose configuration is missing,
// such as the map provider key.
func NotConfigured(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotConfigured(traceID(r), detail))
}
