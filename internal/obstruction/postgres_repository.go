package obstruction

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tacnavial/tacnavial/internal/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL obstruction repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List retrieves all obstructions in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]*Obstruction, error) {
	query := `
		SELECT id, lat, lng, end_lat, end_lng, type, title, description, added_at
		FROM obstructions
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying obstructions: %w", err)
	}
	defer rows.Close()

	var out []*Obstruction
	for rows.Next() {
		var (
			o              Obstruction
			endLat, endLng *float64
		)
		if err := rows.Scan(
			&o.ID,
			&o.Coordinates.Lat,
			&o.Coordinates.Lng,
			&endLat,
			&endLng,
			&o.Type,
			&o.Title,
			&o.Description,
			&o.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning obstruction: %w", err)
		}
		if endLat != nil && endLng != nil {
			o.EndCoordinates = &geo.Point{Lat: *endLat, Lng: *endLng}
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// Add inserts an obstruction.
func (r *PostgresRepository) Add(ctx context.Context, o *Obstruction) error {
	query := `
		INSERT INTO obstructions (id, lat, lng, end_lat, end_lng, type, title, description, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var endLat, endLng *float64
	if o.EndCoordinates != nil {
		endLat, endLng = &o.EndCoordinates.Lat, &o.EndCoordinates.Lng
	}

	_, err := r.pool.Exec(ctx, query,
		o.ID,
		o.Coordinates.Lat,
		o.Coordinates.Lng,
		endLat,
		endLng,
		string(o.Type),
		o.Title,
		o.Description,
		o.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting obstruction: %w", err)
	}
	return nil
}

// Remove deletes an obstruction by id.
func (r *PostgresRepository) Remove(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM obstructions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting obstruction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ Repository = (*PostgresRepository)(nil)
