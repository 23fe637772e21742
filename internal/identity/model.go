package identity

import (
	"time"

	"github.com/google/uuid"
)

// Provider is the authentication method that created a user record.
// It is set at creation and never changes; an account is not re-linked
// across providers.
type Provider string

const (
	ProviderCredential Provider = "credential"
	ProviderGoogle     Provider = "google"
	ProviderGithub     Provider = "github"
	ProviderGenerated  Provider = "generated"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderCredential, ProviderGoogle, ProviderGithub, ProviderGenerated:
		return true
	}
	return false
}

// Role of a user record.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a row in the users table. One record exists per email,
// regardless of how many times or through which method the user signs in.
type User struct {
	ID           uuid.UUID
	Email        string
	UserName     *string
	FirstName    *string
	LastName     *string
	PasswordHash *string // set iff Provider == ProviderCredential
	AvatarURI    *string
	Provider     Provider
	Role         Role
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionView is the ephemeral projection of a User exposed to a request.
// It is rebuilt from the store on every read and never persisted, so
// profile edits are visible on the very next request.
type SessionView struct {
	ID       uuid.UUID
	UserName string
	Role     Role
	Provider Provider
}

// OutcomeKind tags which authentication path produced an Outcome.
type OutcomeKind string

const (
	OutcomeCredential OutcomeKind = "credential"
	OutcomeProvider   OutcomeKind = "provider"
)

// Outcome is the result of a successful authentication attempt, regardless
// of whether it came through the credential verifier or a provider
// reconciliation.
type Outcome struct {
	Kind OutcomeKind
	User *User
}

// Assertion is a verified external-identity claim handed over by an OAuth
// provider after an out-of-band handshake. It is trusted verbatim.
type Assertion struct {
	Provider  Provider
	Email     string
	Name      string
	AvatarURL string
}
