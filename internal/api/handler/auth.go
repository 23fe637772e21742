package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/api/validation"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/session"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

func sessionUser(u *identity.User) userResponse {
	resp := userResponse{
		ID:       u.ID.String(),
		Role:     string(u.Role),
		Provider: string(u.Provider),
	}
	if u.UserName != nil {
		resp.UserName = *u.UserName
	}
	return resp
}

// AuthHandler handles credential signup, login and logout.
type AuthHandler struct {
	verifier *identity.Verifier
	issuer   *session.Issuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(verifier *identity.Verifier, issuer *session.Issuer) *AuthHandler {
	return &AuthHandler{verifier: verifier, issuer: issuer}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.verifier.Register(r.Context(), identity.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			response.Err(w, http.StatusConflict, "CONFLICT", "An account with this email already exists", requestID)
		case errors.Is(err, identity.ErrMissingFields),
			errors.Is(err, identity.ErrInvalidEmail),
			errors.Is(err, identity.ErrPasswordLength):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		default:
			slog.Error("failed to register user", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user", requestID)
		}
		return
	}

	// No session is established here; the client signs in next.
	response.Success(w, http.StatusCreated, sessionUser(u), requestID)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	outcome, err := h.verifier.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// One message for both unknown email and wrong password.
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", requestID)
			return
		}
		slog.Error("failed to verify credentials", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", requestID)
		return
	}

	h.establishSession(w, r, outcome, requestID)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	session.ClearCookie(w)
	response.NoContent(w)
}

// establishSession mints a token for an authentication outcome, whatever
// path produced it, and returns the session payload.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, outcome *identity.Outcome, requestID string) {
	token, err := h.issuer.Issue(outcome.User.ID)
	if err != nil {
		slog.Error("failed to issue session token", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", requestID)
		return
	}

	session.SetCookie(w, token, h.issuer.TTL())
	slog.Info("session established", "userId", outcome.User.ID, "kind", outcome.Kind)

	response.Success(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  sessionUser(outcome.User),
	}, requestID)
}
