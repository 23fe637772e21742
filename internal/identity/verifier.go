package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds for credential accounts.
const (
	PasswordMinLen = 8
	PasswordMaxLen = 32
)

// ErrPasswordLength is returned when a password falls outside the allowed bounds.
var ErrPasswordLength = fmt.Errorf("password must be between %d and %d characters", PasswordMinLen, PasswordMaxLen)

// ErrInvalidEmail is returned when an email does not look like an email.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrMissingFields is returned when a signup is missing required fields.
var ErrMissingFields = errors.New("all fields are required")

// Verifier validates email/password pairs against the user store.
type Verifier struct {
	repo       Repository
	bcryptCost int
}

// NewVerifier creates a new credential Verifier.
func NewVerifier(repo Repository, bcryptCost int) *Verifier {
	return &Verifier{repo: repo, bcryptCost: bcryptCost}
}

// Verify looks up the record for email and compares password against its
// hash. A missing record and a wrong password both return ErrNotFound so the
// caller cannot enumerate accounts; the distinction is kept in server logs
// only. Verify never mutates state.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*User, error) {
	u, err := v.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Debug("credential verify: no such user", "email", email)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	if u.PasswordHash == nil {
		// Provider-created account; it has no password to check.
		slog.Debug("credential verify: account has no password", "provider", u.Provider)
		return nil, ErrNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		slog.Debug("credential verify: password mismatch", "userId", u.ID)
		return nil, ErrNotFound
	}

	return u, nil
}

// Authenticate wraps Verify into the shared authentication outcome shape.
func (v *Verifier) Authenticate(ctx context.Context, email, password string) (*Outcome, error) {
	u, err := v.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeCredential, User: u}, nil
}

// RegisterParams holds credential signup input.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a credential account. The record starts unverified; a
// provider login for the same email later is a distinct record only if the
// email differs, since the store enforces one record per email.
func (v *Verifier) Register(ctx context.Context, p RegisterParams) (*User, error) {
	firstName := strings.TrimSpace(p.FirstName)
	lastName := strings.TrimSpace(p.LastName)
	email := strings.TrimSpace(p.Email)

	if firstName == "" || lastName == "" || email == "" || p.Password == "" {
		return nil, ErrMissingFields
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(p.Password) < PasswordMinLen || len(p.Password) > PasswordMaxLen {
		return nil, ErrPasswordLength
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(p.Password), v.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	hash := string(hashBytes)
	userName := firstName + " " + lastName
	u := &User{
		Email:        email,
		UserName:     &userName,
		FirstName:    &firstName,
		LastName:     &lastName,
		PasswordHash: &hash,
		Provider:     ProviderCredential,
		Role:         RoleUser,
		Verified:     false,
	}

	if err := v.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user registered", "userId", u.ID)
	return u, nil
}

// ValidEmail reports whether s has a plausible email shape. The store keeps
// the authoritative constraint; this only rejects obvious garbage early.
func ValidEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(s, " \t")
}
