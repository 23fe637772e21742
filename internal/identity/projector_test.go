package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_ReflectsLatestRecord(t *testing.T) {
	repo := newFakeRepository()
	p := NewProjector(repo)
	ctx := context.Background()

	name := "Ada"
	u := &User{Email: "ada@example.com", UserName: &name, Provider: ProviderGoogle, Verified: true}
	require.NoError(t, repo.Create(ctx, u))

	view, err := p.Project(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", view.UserName)
	assert.Equal(t, RoleUser, view.Role)
	assert.Equal(t, ProviderGoogle, view.Provider)

	// A profile edit is visible on the very next projection; there is no
	// cache to invalidate.
	renamed := "Ada L."
	require.NoError(t, repo.UpdateFields(ctx, u.ID, Fields{UserName: &renamed}))

	view, err = p.Project(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", view.UserName)
}

func TestProject_DeletedAccountExpires(t *testing.T) {
	p := NewProjector(newFakeRepository())

	_, err := p.Project(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestProject_NilUserName(t *testing.T) {
	repo := newFakeRepository()
	p := NewProjector(repo)
	ctx := context.Background()

	u := &User{Email: "anon@example.com", Provider: ProviderGithub, Verified: true}
	require.NoError(t, repo.Create(ctx, u))

	view, err := p.Project(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.UserName)
}
