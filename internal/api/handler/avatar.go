package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/api/validation"
	"github.com/forkful/forkful/internal/blob"
	"github.com/forkful/forkful/internal/identity"
)

type avatarResponse struct {
	URL string `json:"url"`
	// Degraded is set when the new avatar was stored but the previous blob
	// could not be deleted.
	Degraded bool `json:"degraded,omitempty"`
}

// AvatarHandler handles avatar upload and deletion.
type AvatarHandler struct {
	service *identity.Service
	blobs   blob.Store
	folder  string
}

// NewAvatarHandler creates a new AvatarHandler. folder namespaces avatar
// keys inside the bucket.
func NewAvatarHandler(service *identity.Service, blobs blob.Store, folder string) *AvatarHandler {
	return &AvatarHandler{service: service, blobs: blobs, folder: folder}
}

// Upload handles POST /avatar/upload (multipart form with a "file" part and
// an optional "userId" field defaulting to the caller).
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxAvatarBytes+1<<20)
	if err := r.ParseMultipartForm(validation.MaxAvatarBytes); err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request must be a multipart form", requestID)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "A file is required", requestID)
		return
	}
	defer file.Close()

	userID := sess.ID
	if raw := r.FormValue("userId"); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a valid UUID", requestID)
			return
		}
	}

	// The allowlist check happens here, before any blob-store call.
	contentType := header.Header.Get("Content-Type")
	fieldErrors := validation.ValidateAvatarUpload(contentType, header.Size)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read upload", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read file", requestID)
		return
	}

	key := blob.ObjectKey(h.folder, header.Filename)
	url, err := h.blobs.Put(r.Context(), key, data, contentType)
	if err != nil {
		slog.Error("failed to store avatar blob", "error", err, "key", key, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload file", requestID)
		return
	}

	degraded, err := h.service.ChangeAvatar(r.Context(), sess.ID, userID, url)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrForbidden):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot change another user's avatar", requestID)
		case errors.Is(err, identity.ErrNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to update avatar", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update avatar", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, avatarResponse{URL: url, Degraded: degraded}, requestID)
}

// Delete handles POST /avatar/delete.
func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	if err := h.service.RemoveAvatar(r.Context(), sess.ID); err != nil {
		switch {
		case errors.Is(err, identity.ErrNoAvatar):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "No avatar to delete", requestID)
		case errors.Is(err, identity.ErrAvatarNotHosted):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Avatar is not hosted here", requestID)
		case errors.Is(err, identity.ErrNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to delete avatar", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete avatar", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, map[string]string{"message": "Avatar deleted"}, requestID)
}
