package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// fakeRepository is an in-memory Repository for unit tests. It enforces the
// same email uniqueness the real store does.
type fakeRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User

	// createErr, when set, is returned by Create before any state change.
	createErr error
	creates   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[uuid.UUID]*User)}
}

func (f *fakeRepository) Create(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	if f.createErr != nil {
		return f.createErr
	}

	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}

	u.ID = uuid.New()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *fakeRepository) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) FindByEmailAndProvider(_ context.Context, email string, provider Provider) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) && u.Provider == provider {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) FindByUserName(_ context.Context, userName string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.UserName != nil && *u.UserName == userName {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) UpdateFields(_ context.Context, id uuid.UUID, fields Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}

	if fields.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*fields.Email))
		for otherID, other := range f.users {
			if otherID != id && strings.EqualFold(other.Email, email) {
				return ErrEmailTaken
			}
		}
		u.Email = email
	}
	if fields.UserName != nil {
		v := *fields.UserName
		u.UserName = &v
	}
	if fields.FirstName != nil {
		v := *fields.FirstName
		u.FirstName = &v
	}
	if fields.LastName != nil {
		v := *fields.LastName
		u.LastName = &v
	}
	if fields.PasswordHash != nil {
		v := *fields.PasswordHash
		u.PasswordHash = &v
	}
	if fields.AvatarURI != nil {
		v := *fields.AvatarURI
		u.AvatarURI = &v
	}
	if fields.Verified != nil {
		u.Verified = *fields.Verified
	}

	return nil
}
