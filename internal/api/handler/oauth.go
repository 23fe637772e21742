package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/oauth"
	"github.com/forkful/forkful/internal/session"
)

const stateCookieName = "oauthstate"

// OAuthHandler drives the provider sign-in flow: redirect out with a state
// cookie, then reconcile the callback assertion into a local record.
type OAuthHandler struct {
	providers  map[string]oauth.Provider
	reconciler *identity.Reconciler
	issuer     *session.Issuer
}

// NewOAuthHandler creates a new OAuthHandler for the given providers.
func NewOAuthHandler(reconciler *identity.Reconciler, issuer *session.Issuer, providers ...oauth.Provider) *OAuthHandler {
	byName := make(map[string]oauth.Provider, len(providers))
	for _, p := range providers {
		byName[string(p.Name())] = p
	}
	return &OAuthHandler{providers: byName, reconciler: reconciler, issuer: issuer}
}

// Login handles GET /auth/{provider}/login.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Unknown identity provider", requestID)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		slog.Error("failed to generate oauth state", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start sign-in", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/{provider}/callback.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Unknown identity provider", requestID)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/", MaxAge: -1})
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "OAuth state mismatch", requestID)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing authorization code", requestID)
		return
	}

	assertion, err := provider.Identify(r.Context(), code)
	if err != nil {
		if errors.Is(err, oauth.ErrNoEmail) {
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "Provider returned no email address", requestID)
			return
		}
		slog.Warn("oauth identify failed", "provider", provider.Name(), "error", err, "requestId", requestID)
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign-in failed", requestID)
		return
	}

	outcome, err := h.reconciler.Authenticate(r.Context(), assertion)
	if err != nil {
		slog.Error("failed to reconcile provider identity", "provider", provider.Name(), "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", requestID)
		return
	}

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
