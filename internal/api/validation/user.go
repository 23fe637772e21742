package validation

import (
	"fmt"
	"strings"

	"github.com/forkful/forkful/internal/identity"
)

// RegisterRequest mirrors the fields needed for signup validation.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ValidateRegisterRequest validates the fields of a credential signup.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.FirstName) == "" {
		errs = append(errs, FieldError{Field: "firstName", Message: "firstName is required"})
	}
	if strings.TrimSpace(req.LastName) == "" {
		errs = append(errs, FieldError{Field: "lastName", Message: "lastName is required"})
	}
	errs = append(errs, validateEmail(req.Email)...)
	errs = append(errs, ValidatePassword(req.Password)...)

	return errs
}

// LoginRequest mirrors the fields needed for credential login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest validates the fields of a credential login.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateEmail(req.Email)...)
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

// ValidatePassword checks the credential password length bounds.
func ValidatePassword(password string) []FieldError {
	if password == "" {
		return []FieldError{{Field: "password", Message: "password is required"}}
	}
	if len(password) < identity.PasswordMinLen || len(password) > identity.PasswordMaxLen {
		return []FieldError{{
			Field: "password",
			Message: fmt.Sprintf("password must be between %d and %d characters",
				identity.PasswordMinLen, identity.PasswordMaxLen),
		}}
	}
	return nil
}

// ValidateEmailChange validates a requested new email address.
func ValidateEmailChange(email string) []FieldError {
	return validateEmail(email)
}

func validateEmail(email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return []FieldError{{Field: "email", Message: "email is required"}}
	}
	if !identity.ValidEmail(email) {
		return []FieldError{{Field: "email", Message: "email must be a valid email address"}}
	}
	return nil
}
