package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkful/forkful/internal/api/response"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/session"
)

const sessionKey contextKey = "session"

// Auth is middleware that resolves the session token to a fresh SessionView.
// The projector re-reads the user record on every request; nothing from the
// token beyond the user id is trusted. Missing, invalid and orphaned tokens
// all return 401.
func Auth(issuer *session.Issuer, projector *identity.Projector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token, ok := session.FromRequest(r)
			if !ok {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "User is not authenticated", requestID)
				return
			}

			userID, err := issuer.Parse(token)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "User is not authenticated", requestID)
				return
			}

			view, err := projector.Project(r.Context(), userID)
			if err != nil {
				if errors.Is(err, identity.ErrSessionExpired) {
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session expired", requestID)
					return
				}
				slog.Error("failed to project session", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, view)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the authenticated SessionView from the request context.
func GetSession(ctx context.Context) *identity.SessionView {
	if v, ok := ctx.Value(sessionKey).(*identity.SessionView); ok {
		return v
	}
	return nil
}
