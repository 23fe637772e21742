package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnsupportedProvider is returned when an assertion names a provider the
// reconciler does not handle. Credential sign-ins go through the Verifier.
var ErrUnsupportedProvider = errors.New("unsupported identity provider")

// Reconciler maps a verified external-identity assertion onto a local user
// record, creating one on first login.
type Reconciler struct {
	repo Repository
}

// NewReconciler creates a new provider Reconciler.
func NewReconciler(repo Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile finds or creates the record for an OAuth assertion. An existing
// record is returned unchanged: signing in again must not overwrite profile
// edits the user made since their first login.
//
// The find-then-create below is not atomic. Two concurrent first logins for
// the same identity race, and the unique index on email decides the winner;
// the loser's insert comes back ErrEmailTaken and we re-read the surviving
// record instead of failing the login.
func (r *Reconciler) Reconcile(ctx context.Context, a Assertion) (*User, error) {
	if a.Provider != ProviderGoogle && a.Provider != ProviderGithub {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, a.Provider)
	}

	u, err := r.repo.FindByEmailAndProvider(ctx, a.Email, a.Provider)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up provider identity: %w", err)
	}

	created := &User{
		Email:    a.Email,
		Provider: a.Provider,
		Role:     RoleUser,
		Verified: true,
	}
	if a.Name != "" {
		name := a.Name
		created.UserName = &name
	}
	if a.AvatarURL != "" {
		avatar := a.AvatarURL
		created.AvatarURI = &avatar
	}

	err = r.repo.Create(ctx, created)
	if err == nil {
		slog.Info("provider identity created", "provider", a.Provider, "userId", created.ID)
		return created, nil
	}
	if errors.Is(err, ErrEmailTaken) {
		// Lost the race, or the email belongs to an account created through
		// another method. Either way the stored record wins.
		existing, findErr := r.repo.FindByEmail(ctx, a.Email)
		if findErr != nil {
			return nil, fmt.Errorf("re-reading record after duplicate email: %w", findErr)
		}
		return existing, nil
	}

	return nil, fmt.Errorf("creating provider identity: %w", err)
}

// Authenticate wraps Reconcile into the shared authentication outcome shape.
func (r *Reconciler) Authenticate(ctx context.Context, a Assertion) (*Outcome, error) {
	u, err := r.Reconcile(ctx, a)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeProvider, User: u}, nil
}
