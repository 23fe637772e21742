package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user record is not found. A lookup miss is
// an expected outcome, not a failure.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned when an insert or update would violate the
// uniqueness constraint on email.
var ErrEmailTaken = errors.New("email already in use")

// Fields holds the mutable profile columns for partial updates. Nil pointers
// leave the column untouched; UpdateFields never changes provider or id.
type Fields struct {
	Email        *string
	UserName     *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	AvatarURI    *string
	Verified     *bool
}

// Repository provides operations on the users table. Uniqueness on email is
// enforced by the store, not by callers; a create racing another create for
// the same email reports ErrEmailTaken rather than producing two records.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailAndProvider(ctx context.Context, email string, provider Provider) (*User, error)
	FindByUserName(ctx context.Context, userName string) (*User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields Fields) error
}
