package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Synchronizer maintains the (user, recipe) favorite mapping. Both mutators
// are idempotent: repeating an add or a remove changes nothing and only the
// reported status differs.
type Synchronizer struct {
	repo Repository
}

// NewSynchronizer creates a new favorite Synchronizer.
func NewSynchronizer(repo Repository) *Synchronizer {
	return &Synchronizer{repo: repo}
}

// Add favorites a recipe for the user. Adding an existing pair is a no-op
// reporting AlreadyFavorite. The check-then-create here is not atomic; when
// two adds for the same pair race, the primary key rejects the second insert
// and it is reported as AlreadyFavorite, never as a failure.
func (s *Synchronizer) Add(ctx context.Context, userID uuid.UUID, recipeID string) (Status, error) {
	_, err := s.repo.Find(ctx, userID, recipeID)
	if err == nil {
		return AlreadyFavorite, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("checking existing favorite: %w", err)
	}

	err = s.repo.Create(ctx, &Favorite{UserID: userID, RecipeID: recipeID})
	if errors.Is(err, ErrAlreadyExists) {
		return AlreadyFavorite, nil
	}
	if err != nil {
		return 0, err
	}

	return Added, nil
}

// Remove unfavorites a recipe for the user. Removing an absent pair is a
// no-op reporting NotFavorite.
func (s *Synchronizer) Remove(ctx context.Context, userID uuid.UUID, recipeID string) (Status, error) {
	err := s.repo.Delete(ctx, userID, recipeID)
	if errors.Is(err, ErrNotFound) {
		return NotFavorite, nil
	}
	if err != nil {
		return 0, err
	}

	return Removed, nil
}

// List returns the user's favorited recipe ids. Clients call this once per
// session to seed their local cache.
func (s *Synchronizer) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Reconcile compares a client-held favorite cache against server state and
// returns the authoritative list. The server list wins unconditionally; we
// do not merge. An optimistic toggle still in flight during a reload is
// silently discarded, which is the accepted cost of keeping multi-device
// sessions from diverging. Divergence is logged for diagnostics only.
func (s *Synchronizer) Reconcile(ctx context.Context, userID uuid.UUID, clientIDs []string) ([]string, error) {
	serverIDs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if diverged(serverIDs, clientIDs) {
		slog.Debug("favorite cache diverged from server state",
			"userId", userID, "client", len(clientIDs), "server", len(serverIDs))
	}

	return serverIDs, nil
}

// diverged reports whether the two id sets differ, ignoring order.
func diverged(server, client []string) bool {
	if len(server) != len(client) {
		return true
	}
	set := make(map[string]struct{}, len(server))
	for _, id := range server {
		set[id] = struct{}{}
	}
	for _, id := range client {
		if _, ok := set[id]; !ok {
			return true
		}
	}
	return false
}
