package comment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tacnavial/tacnavial/internal/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository. The head of
// the list is the row with the highest seq.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL comment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List retrieves all comments, head first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Comment, error) {
	query := `
		SELECT id, text, image_url, submitted_at, lat, lng
		FROM comments
		ORDER BY seq DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var out []*Comment
	for rows.Next() {
		var (
			c        Comment
			imageURL *string
			lat, lng *float64
		)
		if err := rows.Scan(&c.ID, &c.Text, &imageURL, &c.SubmittedAt, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		if imageURL != nil {
			c.ImageURL = *imageURL
		}
		if lat != nil && lng != nil {
			c.Coordinates = &geo.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Prepend inserts a comment; seq is assigned by the database.
func (r *PostgresRepository) Prepend(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, text, image_url, submitted_at, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var (
		imageURL *string
		lat, lng *float64
	)
	if c.ImageURL != "" {
		imageURL = &c.ImageURL
	}
	if c.Coordinates != nil {
		lat, lng = &c.Coordinates.Lat, &c.Coordinates.Lng
	}

	_, err := r.pool.Exec(ctx, query, c.ID, c.Text, imageURL, c.SubmittedAt, lat, lng)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
