package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionExpired is returned when the identity behind a session no longer
// exists, typically a deleted account with a still-valid token.
var ErrSessionExpired = errors.New("session expired")

// Projector derives the session-visible view of a user. It deliberately
// holds no cache: every Project call re-reads the store, so a profile edit
// is visible on the very next request at the cost of one read per session
// read.
type Projector struct {
	repo Repository
}

// NewProjector creates a new session Projector.
func NewProjector(repo Repository) *Projector {
	return &Projector{repo: repo}
}

// Project re-reads the record for id and returns its session view.
func (p *Projector) Project(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	u, err := p.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("reading identity for session: %w", err)
	}

	view := &SessionView{
		ID:       u.ID,
		Role:     u.Role,
		Provider: u.Provider,
	}
	if u.UserName != nil {
		view.UserName = *u.UserName
	}

	return view, nil
}
