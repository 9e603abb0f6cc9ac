// Package seed loads the initial obstructions, comments and routes into
// empty repositories.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tacnavial/tacnavial/internal/comment"
	"github.com/tacnavial/tacnavial/internal/geo"
	"github.com/tacnavial/tacnavial/internal/obstruction"
	"github.com/tacnavial/tacnavial/internal/route"
)

//go:embed default.yaml
var defaultDocument []byte

// Document is the seed file layout.
type Document struct {
	Obstructions []ObstructionEntry `yaml:"obstructions"`
	Comments     []CommentEntry     `yaml:"comments"`
	Routes       []RouteEntry       `yaml:"routes"`
}

// ObstructionEntry is one seeded obstruction. Age is subtracted from the
// load time to produce AddedAt.
type ObstructionEntry struct {
	ID             string        `yaml:"id"`
	Coordinates    geo.Point     `yaml:"coordinates"`
	EndCoordinates *geo.Point    `yaml:"endCoordinates"`
	Type           string        `yaml:"type"`
	Title          string        `yaml:"title"`
	Description    string        `yaml:"description"`
	Age            time.Duration `yaml:"age"`
}

// CommentEntry is one seeded comment, listed head first.
type CommentEntry struct {
	ID          string        `yaml:"id"`
	Text        string        `yaml:"text"`
	ImageURL    string        `yaml:"imageUrl"`
	Age         time.Duration `yaml:"age"`
	Coordinates *geo.Point    `yaml:"coordinates"`
}

// RouteEntry is one seeded route.
type RouteEntry struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	PathDescription string `yaml:"pathDescription"`
	Status          string `yaml:"status"`
}

// Default returns the embedded seed document.
func Default() (*Document, error) {
	return Parse(defaultDocument)
}

// Load reads a seed document from path, or the embedded default when path is empty.
func Load(path string) (*Document, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(b)
}

// Parse decodes and checks a seed document.
func Parse(b []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed document: %w", err)
	}
	for _, o := range doc.Obstructions {
		if err := o.Coordinates.Validate(); err != nil {
			return nil, fmt.Errorf("obstruction %s: %w", o.ID, err)
		}
		if o.EndCoordinates != nil {
			if err := o.EndCoordinates.Validate(); err != nil {
				return nil, fmt.Errorf("obstruction %s end: %w", o.ID, err)
			}
		}
	}
	for _, r := range doc.Routes {
		switch route.Status(r.Status) {
		case route.StatusOpen, route.StatusBlocked, route.StatusCongested:
		default:
			return nil, fmt.Errorf("route %s: unknown status %q", r.ID, r.Status)
		}
	}
	return &doc, nil
}

// Targets are the repositories to seed. Nil targets are skipped.
type Targets struct {
	Obstructions obstruction.Repository
	Comments     comment.Repository
	Routes       route.Repository
}

// Apply writes the document into every empty target repository. Collections
// that already hold data are left alone so restarts against a database do not
// duplicate rows.
func Apply(ctx context.Context, doc *Document, t Targets, now time.Time, logger zerolog.Logger) error {
	now = now.UTC()

	if t.Obstructions != nil {
		existing, err := t.Obstructions.List(ctx)
		if err != nil {
			return fmt.Errorf("checking obstructions: %w", err)
		}
		if len(existing) == 0 {
			for _, e := range doc.Obstructions {
				o := &obstruction.Obstruction{
					ID:             e.ID,
					Coordinates:    e.Coordinates,
					EndCoordinates: e.EndCoordinates,
					Type:           obstruction.Type(e.Type),
					Title:          e.Title,
					Description:    e.Description,
					AddedAt:        now.Add(-e.Age),
				}
				if err := t.Obstructions.Add(ctx, o); err != nil {
					return fmt.Errorf("seeding obstruction %s: %w", e.ID, err)
				}
			}
			logger.Info().Int("count", len(doc.Obstructions)).Msg("seeded obstructions")
		}
	}

	if t.Comments != nil {
		existing, err := t.Comments.List(ctx)
		if err != nil {
			return fmt.Errorf("checking comments: %w", err)
		}
		if len(existing) == 0 {
			// Prepend in reverse so the first entry ends up at the head.
			for i := len(doc.Comments) - 1; i >= 0; i-- {
				e := doc.Comments[i]
				c := &comment.Comment{
					ID:          e.ID,
					Text:        e.Text,
					ImageURL:    e.ImageURL,
					SubmittedAt: now.Add(-e.Age),
					Coordinates: e.Coordinates,
				}
				if err := t.Comments.Prepend(ctx, c); err != nil {
					return fmt.Errorf("seeding comment %s: %w", e.ID, err)
				}
			}
			logger.Info().Int("count", len(doc.Comments)).Msg("seeded comments")
		}
	}

	if t.Routes != nil {
		existing, err := t.Routes.List(ctx)
		if err != nil {
			return fmt.Errorf("checking routes: %w", err)
		}
		if len(existing) == 0 {
			for _, e := range doc.Routes {
				r := &route.Route{
					ID:              e.ID,
					Name:            e.Name,
					PathDescription: e.PathDescription,
					Status:          route.Status(e.Status),
				}
				if err := t.Routes.Save(ctx, r); err != nil {
					return fmt.Errorf("seeding route %s: %w", e.ID, err)
				}
			}
			logger.Info().Int("count", len(doc.Routes)).Msg("seeded routes")
		}
	}

	return nil
}
