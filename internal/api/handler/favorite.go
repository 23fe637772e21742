package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/api/validation"
	"github.com/forkful/forkful/internal/favorite"
)

type toggleFavoriteRequest struct {
	RecipeID string `json:"recipeId"`
	Action   string `json:"action"`
}

type favoriteListResponse struct {
	RecipeIDs []string `json:"recipeIds"`
}

type syncFavoritesRequest struct {
	RecipeIDs []string `json:"recipeIds"`
}

// FavoriteHandler handles favorite toggles and cache seeding.
type FavoriteHandler struct {
	sync *favorite.Synchronizer
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(sync *favorite.Synchronizer) *FavoriteHandler {
	return &FavoriteHandler{sync: sync}
}

// Toggle handles POST /favorites.
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateToggleFavoriteRequest(validation.ToggleFavoriteRequest{
		RecipeID: req.RecipeID,
		Action:   req.Action,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var (
		status favorite.Status
		err    error
	)
	if req.Action == "add" {
		status, err = h.sync.Add(r.Context(), sess.ID, req.RecipeID)
	} else {
		status, err = h.sync.Remove(r.Context(), sess.ID, req.RecipeID)
	}
	if err != nil {
		slog.Error("failed to toggle favorite", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update favorites", requestID)
		return
	}

	switch status {
	case favorite.Added:
		response.Success(w, http.StatusCreated, map[string]string{"message": "Recipe added to favorites"}, requestID)
	case favorite.AlreadyFavorite:
		response.Success(w, http.StatusOK, map[string]string{"message": "Already a favorite"}, requestID)
	case favorite.Removed:
		response.Success(w, http.StatusOK, map[string]string{"message": "Recipe removed from favorites"}, requestID)
	case favorite.NotFavorite:
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Favorite not found", requestID)
	}
}

// List handles GET /favorites. Clients call this once per session to seed
// their local favorite cache.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	ids, err := h.sync.List(r.Context(), sess.ID)
	if err != nil {
		slog.Error("failed to list favorites", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list favorites", requestID)
		return
	}

	response.Success(w, http.StatusOK, favoriteListResponse{RecipeIDs: ids}, requestID)
}

// Sync handles POST /favorites/sync. The client sends its cached list and
// gets back the authoritative one; the server list wins unconditionally.
func (h *FavoriteHandler) Sync(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req syncFavoritesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	ids, err := h.sync.Reconcile(r.Context(), sess.ID, req.RecipeIDs)
	if err != nil {
		slog.Error("failed to reconcile favorites", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sync favorites", requestID)
		return
	}

	response.Success(w, http.StatusOK, favoriteListResponse{RecipeIDs: ids}, requestID)
}
