package favorite

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a favorite record is not found.
var ErrNotFound = errors.New("favorite not found")

// ErrAlreadyExists is returned when an insert hits the (user, recipe)
// uniqueness constraint.
var ErrAlreadyExists = errors.New("favorite already exists")

// Repository provides operations on the favorites table. The composite
// primary key on (user_id, recipe_id) is required, not optional: the
// synchronizer's check-then-write is not atomic and the store constraint is
// what keeps concurrent adds down to one record.
type Repository interface {
	Find(ctx context.Context, userID uuid.UUID, recipeID string) (*Favorite, error)
	Create(ctx context.Context, f *Favorite) error
	Delete(ctx context.Context, userID uuid.UUID, recipeID string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}
