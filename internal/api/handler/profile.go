package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/api/validation"
	"github.com/forkful/forkful/internal/identity"
)

type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURI string `json:"avatarUri,omitempty"`
	Provider  string `json:"provider"`
	Role      string `json:"role"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"createdAt"`
}

type editProfileRequest struct {
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type changeEmailRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type changePasswordRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// ProfileHandler handles session and profile endpoints.
type ProfileHandler struct {
	service *identity.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service *identity.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Me handles GET /me. The view comes straight from the auth middleware,
// which already re-read the store for this request.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	response.Success(w, http.StatusOK, userResponse{
		ID:       sess.ID.String(),
		UserName: sess.UserName,
		Role:     string(sess.Role),
		Provider: string(sess.Provider),
	}, requestID)
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	u, err := h.service.Profile(r.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to fetch profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch profile", requestID)
		return
	}

	resp := profileResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Provider:  string(u.Provider),
		Role:      string(u.Role),
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if u.UserName != nil {
		resp.UserName = *u.UserName
	}
	if u.FirstName != nil {
		resp.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		resp.LastName = *u.LastName
	}
	if u.AvatarURI != nil {
		resp.AvatarURI = *u.AvatarURI
	}

	response.Success(w, http.StatusOK, resp, requestID)
}

// Edit handles PATCH /profile.
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	err := h.service.EditProfile(r.Context(), sess.ID, identity.EditProfileParams{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNameTaken):
			response.Err(w, http.StatusConflict, "CONFLICT", "Username already in use", requestID)
		case errors.Is(err, identity.ErrNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to edit profile", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile", requestID)
		}
		return
	}

	response.NoContent(w)
}

// ChangeEmail handles PATCH /profile/email.
func (h *ProfileHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req changeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a valid UUID", requestID)
		return
	}
	if fieldErrors := validation.ValidateEmailChange(req.Email); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.service.ChangeEmail(r.Context(), sess.ID, userID, req.Email); err != nil {
		switch {
		case errors.Is(err, identity.ErrForbidden):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot change another user's email", requestID)
		case errors.Is(err, identity.ErrEmailTaken):
			response.Err(w, http.StatusConflict, "CONFLICT", "Email is already in use by another user", requestID)
		case errors.Is(err, identity.ErrInvalidEmail):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email must be a valid email address", requestID)
		case errors.Is(err, identity.ErrNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to change email", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update email", requestID)
		}
		return
	}

	response.NoContent(w)
}

// ChangePassword handles PATCH /profile/password.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a valid UUID", requestID)
		return
	}
	if fieldErrors := validation.ValidatePassword(req.Password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.service.ChangePassword(r.Context(), sess.ID, userID, req.Password); err != nil {
		switch {
		case errors.Is(err, identity.ErrForbidden):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot change another user's password", requestID)
		case errors.Is(err, identity.ErrPasswordLength):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		case errors.Is(err, identity.ErrNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to change password", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update password", requestID)
		}
		return
	}

	response.NoContent(w)
}
