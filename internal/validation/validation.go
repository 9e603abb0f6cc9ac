// Package validation checks admin and public form input independently of any
// form renderer. It returns every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// Result is the outcome of validating one form.
type Result struct {
	Valid  bool
	Errors []models.FieldError
}

// Add records a field error and marks the result invalid.
func (r *Result) Add(field, code, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, models.FieldError{Field: field, Code: code, Message: message})
}

// Merge appends the errors of other.
func (r *Result) Merge(other Result) {
	for _, fe := range other.Errors {
		r.Add(fe.Field, fe.Code, fe.Message)
	}
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate runs struct-tag validation on v.
func Validate(v any) Result {
	res := Result{Valid: true}
	err := instance().Struct(v)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Add("", "invalid", err.Error())
		return res
	}
	for _, fe := range verrs {
		res.Add(fieldPath(fe), fe.Tag(), message(fe))
	}
	return res
}

// Obstruction validates an obstruction form.
func Obstruction(req *models.ObstructionCreateRequest) Result {
	return Validate(req)
}

// Comment validates a comment form, including the attached image metadata.
func Comment(req *models.CommentSubmitRequest) Result {
	return Validate(req)
}

// Coordinates validates a coordinate pair under the given field prefix.
func Coordinates(prefix string, c models.Coordinates) Result {
	res := Result{Valid: true}
	if c.Lat < -90 || c.Lat > 90 {
		res.Add(prefix+".lat", "range", "must be between -90 and 90")
	}
	if c.Lng < -180 || c.Lng > 180 {
		res.Add(prefix+".lng", "range", "must be between -180 and 180")
	}
	return res
}

// fieldPath strips the root struct name from the namespace so that
// "ObstructionCreateRequest.endCoordinates.lat" becomes "endCoordinates.lat".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		if fe.Field() == "size" {
			return "must be at most 5MB"
		}
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
