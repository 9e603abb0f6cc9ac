package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List retrieves all routes ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*Route, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, path_description, status FROM routes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	var out []*Route
	for rows.Next() {
		var rt Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.PathDescription, &rt.Status); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}

// Transition locks the row, computes the next status and writes it in one
// transaction.
func (r *PostgresRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (*Route, error) {
	var rt Route
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT id, name, path_description, status FROM routes WHERE id = $1 FOR UPDATE`, id,
		).Scan(&rt.ID, &rt.Name, &rt.PathDescription, &rt.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRouteNotFound
			}
			return fmt.Errorf("locking route: %w", err)
		}

		next, err := fn(rt.Status)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE routes SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(next)); err != nil {
			return fmt.Errorf("updating route status: %w", err)
		}
		rt.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Save upserts a route.
func (r *PostgresRepository) Save(ctx context.Context, rt *Route) error {
	query := `
		INSERT INTO routes (id, name, path_description, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			path_description = EXCLUDED.path_description,
			status = EXCLUDED.status,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, rt.ID, rt.Name, rt.PathDescription, string(rt.Status)); err != nil {
		return fmt.Errorf("saving route %s: %w", rt.ID, err)
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
