package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const userColumns = `id, email, user_name, first_name, last_name, password_hash,
	       avatar_uri, provider, role, verified, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.UserName, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.AvatarURI, &u.Provider, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	return &u, nil
}

// Create inserts a new user record. The unique index on email is the
// correctness backstop for concurrent signups; a violation surfaces as
// ErrEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, user_name, first_name, last_name, password_hash,
		                   avatar_uri, provider, role, verified)
		VALUES (LOWER($1), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, email, created_at, updated_at`

	role := u.Role
	if role == "" {
		role = RoleUser
	}

	err := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(u.Email),
		u.UserName,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.AvatarURI,
		u.Provider,
		role,
		u.Verified,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	u.Role = role

	return nil
}

// FindByID retrieves a single user by its UUID.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// FindByEmail retrieves a single user by email, case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// FindByEmailAndProvider retrieves the user owning the (email, provider) pair.
func (r *PostgresRepository) FindByEmailAndProvider(ctx context.Context, email string, provider Provider) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND provider = $2`
	return scanUser(r.pool.QueryRow(ctx, query, strings.TrimSpace(email), provider))
}

// FindByUserName retrieves a single user by display username.
func (r *PostgresRepository) FindByUserName(ctx context.Context, userName string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userName))
}

// UpdateFields applies a partial update to the record. Only non-nil fields
// are written. Returns ErrNotFound if the record does not exist and
// ErrEmailTaken when an email update collides with another record.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields Fields) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Email != nil {
		args = append(args, strings.TrimSpace(*fields.Email))
		sets = append(sets, fmt.Sprintf("email = LOWER($%d)", len(args)))
	}
	if fields.UserName != nil {
		add("user_name", *fields.UserName)
	}
	if fields.FirstName != nil {
		add("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("last_name", *fields.LastName)
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	if fields.AvatarURI != nil {
		add("avatar_uri", *fields.AvatarURI)
	}
	if fields.Verified != nil {
		add("verified", *fields.Verified)
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $1", strings.Join(sets, ", "))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
