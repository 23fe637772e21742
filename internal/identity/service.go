package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrForbidden is returned when the caller's session identity does not match
// the record being mutated. Ownership here is identity equality, not role.
var ErrForbidden = errors.New("caller does not own this record")

// ErrUserNameTaken is returned when a profile edit picks a username another
// record already uses.
var ErrUserNameTaken = errors.New("username already in use")

// ErrNoAvatar is returned when an avatar operation finds no avatar set.
var ErrNoAvatar = errors.New("no avatar set")

// ErrAvatarNotHosted is returned when the stored avatar URI does not point
// into our blob store, so there is nothing we can delete.
var ErrAvatarNotHosted = errors.New("avatar is not hosted in the blob store")

// AvatarStore is the subset of the blob store the profile service needs.
type AvatarStore interface {
	Delete(ctx context.Context, key string) error
	// Key maps a hosted URI back to its storage key. The second return is
	// false for URIs outside our blob store (e.g. a provider's avatar URL).
	Key(uri string) (string, bool)
}

// Service provides profile and credential mutations on user records.
type Service struct {
	repo       Repository
	avatars    AvatarStore
	bcryptCost int
}

// NewService creates a new profile Service.
func NewService(repo Repository, avatars AvatarStore, bcryptCost int) *Service {
	return &Service{repo: repo, avatars: avatars, bcryptCost: bcryptCost}
}

// Profile returns the full record for id.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangeEmail updates the record's email after checking the new address is
// not owned by a different record. The pre-check is advisory; the unique
// index catches any race and the handler sees the same ErrEmailTaken.
func (s *Service) ChangeEmail(ctx context.Context, callerID, userID uuid.UUID, newEmail string) error {
	if callerID != userID {
		return ErrForbidden
	}
	if !ValidEmail(newEmail) {
		return ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, newEmail)
	if err == nil && existing.ID != userID {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking email availability: %w", err)
	}

	return s.repo.UpdateFields(ctx, userID, Fields{Email: &newEmail})
}

// ChangePassword validates the length bounds, rehashes and replaces the
// stored hash.
func (s *Service) ChangePassword(ctx context.Context, callerID, userID uuid.UUID, newPassword string) error {
	if callerID != userID {
		return ErrForbidden
	}
	if len(newPassword) < PasswordMinLen || len(newPassword) > PasswordMaxLen {
		return ErrPasswordLength
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	hash := string(hashBytes)

	return s.repo.UpdateFields(ctx, userID, Fields{PasswordHash: &hash})
}

// EditProfileParams holds profile edit input.
type EditProfileParams struct {
	UserName  string
	FirstName string
	LastName  string
}

// EditProfile updates the display fields. A changed username must not
// collide with another record's.
func (s *Service) EditProfile(ctx context.Context, callerID uuid.UUID, p EditProfileParams) error {
	current, err := s.repo.FindByID(ctx, callerID)
	if err != nil {
		return err
	}

	if p.UserName != "" && (current.UserName == nil || *current.UserName != p.UserName) {
		existing, err := s.repo.FindByUserName(ctx, p.UserName)
		if err == nil && existing.ID != callerID {
			return ErrUserNameTaken
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("checking username availability: %w", err)
		}
	}

	return s.repo.UpdateFields(ctx, callerID, Fields{
		UserName:  &p.UserName,
		FirstName: &p.FirstName,
		LastName:  &p.LastName,
	})
}

// ChangeAvatar points the record at newURI and then removes the previous
// blob. The delete is best-effort: a failure is reported as a degraded
// success (true return) and never rolls back the new avatar.
func (s *Service) ChangeAvatar(ctx context.Context, callerID, userID uuid.UUID, newURI string) (degraded bool, err error) {
	if callerID != userID {
		return false, ErrForbidden
	}

	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if err := s.repo.UpdateFields(ctx, userID, Fields{AvatarURI: &newURI}); err != nil {
		return false, err
	}

	if current.AvatarURI == nil || *current.AvatarURI == "" {
		return false, nil
	}
	key, hosted := s.avatars.Key(*current.AvatarURI)
	if !hosted {
		return false, nil
	}
	if err := s.avatars.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete previous avatar blob", "userId", userID, "key", key, "error", err)
		return true, nil
	}

	return false, nil
}

// RemoveAvatar deletes the current avatar blob and clears the record's
// avatar URI. Unlike replacement, a delete here is the point of the call,
// so a blob-store failure fails the operation.
func (s *Service) RemoveAvatar(ctx context.Context, callerID uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if current.AvatarURI == nil || *current.AvatarURI == "" {
		return ErrNoAvatar
	}

	key, hosted := s.avatars.Key(*current.AvatarURI)
	if !hosted {
		return ErrAvatarNotHosted
	}

	if err := s.avatars.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting avatar blob: %w", err)
	}

	empty := ""
	return s.repo.UpdateFields(ctx, callerID, Fields{AvatarURI: &empty})
}
