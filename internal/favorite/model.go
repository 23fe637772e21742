package favorite

import "github.com/google/uuid"

// Favorite marks a user's interest in a recipe. Presence of the row is the
// whole state: there are no lifecycle fields beyond existence.
type Favorite struct {
	UserID   uuid.UUID
	RecipeID string
}

// Status reports what a toggle actually did, so idempotent repeats are
// distinguishable from first-time changes.
type Status int

const (
	Added Status = iota
	AlreadyFavorite
	Removed
	NotFavorite
)

func (s Status) String() string {
	switch s {
	case Added:
		return "added"
	case AlreadyFavorite:
		return "already-favorite"
	case Removed:
		return "removed"
	case NotFavorite:
		return "not-favorite"
	}
	return "unknown"
}
