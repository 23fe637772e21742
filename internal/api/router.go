package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/forkful/forkful/internal/api/handler"
	"github.com/forkful/forkful/internal/api/middleware"
	"github.com/forkful/forkful/internal/blob"
	"github.com/forkful/forkful/internal/favorite"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/oauth"
	"github.com/forkful/forkful/internal/session"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Verifier     *identity.Verifier
	Reconciler   *identity.Reconciler
	Projector    *identity.Projector
	Profiles     *identity.Service
	Favorites    *favorite.Synchronizer
	Blobs        blob.Store
	AvatarFolder string
	Issuer       *session.Issuer
	Providers    []oauth.Provider
	DBPinger     handler.DBPinger
	Version      string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	r.Get("/health", handler.NewHealthHandler(deps.DBPinger, deps.Version).ServeHTTP)

	authHandler := handler.NewAuthHandler(deps.Verifier, deps.Issuer)
	oauthHandler := handler.NewOAuthHandler(deps.Reconciler, deps.Issuer, deps.Providers...)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/{provider}/login", oauthHandler.Login)
		r.Get("/{provider}/callback", oauthHandler.Callback)
	})

	authed := middleware.Auth(deps.Issuer, deps.Projector)

	profileHandler := handler.NewProfileHandler(deps.Profiles)
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Get("/me", profileHandler.Me)
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Patch("/", profileHandler.Edit)
			r.Patch("/email", profileHandler.ChangeEmail)
			r.Patch("/password", profileHandler.ChangePassword)
		})
	})

	favoriteHandler := handler.NewFavoriteHandler(deps.Favorites)
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Route("/favorites", func(r chi.Router) {
			r.Post("/", favoriteHandler.Toggle)
			r.Get("/", favoriteHandler.List)
			r.Post("/sync", favoriteHandler.Sync)
		})
	})

	if deps.Blobs != nil {
		avatarHandler := handler.NewAvatarHandler(deps.Profiles, deps.Blobs, deps.AvatarFolder)
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/avatar/upload", avatarHandler.Upload)
			r.Post("/avatar/delete", avatarHandler.Delete)
		})
	}

	return r
}
