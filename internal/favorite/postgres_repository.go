package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Find retrieves a single favorite by its composite key.
func (r *PostgresRepository) Find(ctx context.Context, userID uuid.UUID, recipeID string) (*Favorite, error) {
	query := `SELECT user_id, recipe_id FROM favorites WHERE user_id = $1 AND recipe_id = $2`

	var f Favorite
	err := r.pool.QueryRow(ctx, query, userID, recipeID).Scan(&f.UserID, &f.RecipeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying favorite: %w", err)
	}

	return &f, nil
}

// Create inserts a new favorite record. A concurrent insert for the same
// pair loses to the primary key and reports ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, f *Favorite) error {
	query := `INSERT INTO favorites (user_id, recipe_id) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, f.UserID, f.RecipeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting favorite: %w", err)
	}

	return nil
}

// Delete removes a favorite record. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, userID uuid.UUID, recipeID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`

	result, err := r.pool.Exec(ctx, query, userID, recipeID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser returns the recipe ids the user has favorited, as an unordered set.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT recipe_id FROM favorites WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorite rows: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}
