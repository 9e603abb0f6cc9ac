package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/validation"
)

func validObstruction() *models.ObstructionCreateRequest {
	return &models.ObstructionCreateRequest{
		Coordinates: models.Coordinates{Lat: -18.006, Lng: -70.248},
		Type:        models.ObstructionConstruction,
		Title:       "Obras en Av. Bolognesi",
		Description: "Reparación de pista, carril derecho cerrado.",
	}
}

func fields(res validation.Result) []string {
	out := make([]string, 0, len(res.Errors))
	for _, fe := range res.Errors {
		out = append(out, fe.Field)
	}
	return out
}

func TestObstruction_Valid(t *testing.T) {
	res := validation.Obstruction(validObstruction())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestObstruction_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *models.ObstructionCreateRequest)
		wantField string
		wantCode  string
	}{
		{"title too short", func(r *models.ObstructionCreateRequest) { r.Title = "Obra" }, "title", "min"},
		{"title too long", func(r *models.ObstructionCreateRequest) { r.Title = strings.Repeat("a", 101) }, "title", "max"},
		{"description too short", func(r *models.ObstructionCreateRequest) { r.Description = "corto" }, "description", "min"},
		{"description too long", func(r *models.ObstructionCreateRequest) { r.Description = strings.Repeat("d", 501) }, "description", "max"},
		{"missing type", func(r *models.ObstructionCreateRequest) { r.Type = "" }, "type", "required"},
		{"unknown type", func(r *models.ObstructionCreateRequest) { r.Type = "flood" }, "type", "oneof"},
		{"latitude out of range", func(r *models.ObstructionCreateRequest) { r.Coordinates.Lat = -91 }, "coordinates.lat", "gte"},
		{"end longitude out of range", func(r *models.ObstructionCreateRequest) {
			r.EndCoordinates = &models.Coordinates{Lat: -18, Lng: 200}
		}, "endCoordinates.lng", "lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validObstruction()
			tt.mutate(req)

			res := validation.Obstruction(req)
			require.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.wantField, res.Errors[0].Field)
			assert.Equal(t, tt.wantCode, res.Errors[0].Code)
			assert.NotEmpty(t, res.Errors[0].Message)
		})
	}
}

func TestObstruction_ReportsAllErrors(t *testing.T) {
	res := validation.Obstruction(&models.ObstructionCreateRequest{Title: "x", Description: "y"})
	assert.False(t, res.Valid)
	assert.ElementsMatch(t, []string{"type", "title", "description"}, fields(res))
}

func TestObstruction_CountsCharactersNotBytes(t *testing.T) {
	req := validObstruction()
	req.Title = "Ñañú" + "ó" // five characters, more than five bytes
	assert.True(t, validation.Obstruction(req).Valid)
}

func TestComment(t *testing.T) {
	lat, lng := -18.0146, -70.2534
	badLat := 120.0

	tests := []struct {
		name       string
		req        models.CommentSubmitRequest
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "text only",
			req:       models.CommentSubmitRequest{Text: "Tráfico intenso en el centro."},
			wantValid: true,
		},
		{
			name: "with image and location",
			req: models.CommentSubmitRequest{
				Text:      "Semáforo malogrado en Ovalo Cusco.",
				Image:     &models.ImageUpload{FileName: "foto.jpg", ContentType: "image/jpeg", Size: 1024},
				Latitude:  &lat,
				Longitude: &lng,
			},
			wantValid: true,
		},
		{
			name:       "text too short",
			req:        models.CommentSubmitRequest{Text: "lento"},
			wantFields: []string{"text"},
		},
		{
			name: "image too large",
			req: models.CommentSubmitRequest{
				Text:  "Foto del accidente en la avenida.",
				Image: &models.ImageUpload{FileName: "big.png", ContentType: "image/png", Size: models.MaxImageBytes + 1},
			},
			wantFields: []string{"image.size"},
		},
		{
			name: "unsupported image type",
			req: models.CommentSubmitRequest{
				Text:  "Foto del accidente en la avenida.",
				Image: &models.ImageUpload{FileName: "clip.gif", ContentType: "image/gif", Size: 10},
			},
			wantFields: []string{"image.contentType"},
		},
		{
			name:       "latitude out of range",
			req:        models.CommentSubmitRequest{Text: "Tráfico intenso en el centro.", Latitude: &badLat},
			wantFields: []string{"latitude"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validation.Comment(&tt.req)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.ElementsMatch(t, tt.wantFields, fields(res))
		})
	}
}

func TestCoordinates(t *testing.T) {
	assert.True(t, validation.Coordinates("start", models.Coordinates{Lat: -18, Lng: -70}).Valid)

	res := validation.Coordinates("end", models.Coordinates{Lat: 95, Lng: -190})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"end.lat", "end.lng"}, fields(res))
}

func TestResult_Merge(t *testing.T) {
	res := validation.Result{Valid: true}
	res.Merge(validation.Coordinates("start", models.Coordinates{Lat: 100}))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 1)
}
