package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forkful/forkful/internal/api"
	"github.com/forkful/forkful/internal/blob"
	"github.com/forkful/forkful/internal/config"
	"github.com/forkful/forkful/internal/database"
	"github.com/forkful/forkful/internal/favorite"
	"github.com/forkful/forkful/internal/identity"
	"github.com/forkful/forkful/internal/oauth"
	"github.com/forkful/forkful/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var blobs blob.Store
	if cfg.S3Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, blob.S3Options{
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			slog.Error("failed to initialize blob store", "error", err)
			os.Exit(1)
		}
		blobs = s3Store
	} else {
		slog.Warn("no S3 bucket configured; avatar endpoints disabled")
	}

	users := identity.NewRepository(db.Pool())
	favorites := favorite.NewRepository(db.Pool())

	var avatars identity.AvatarStore = noopAvatars{}
	if blobs != nil {
		avatars = blobs
	}

	deps := api.RouterDeps{
		Verifier:     identity.NewVerifier(users, cfg.BcryptCost),
		Reconciler:   identity.NewReconciler(users),
		Projector:    identity.NewProjector(users),
		Profiles:     identity.NewService(users, avatars, cfg.BcryptCost),
		Favorites:    favorite.NewSynchronizer(favorites),
		Blobs:        blobs,
		AvatarFolder: cfg.AvatarFolder,
		Issuer:       session.NewIssuer([]byte(cfg.SessionSecret), time.Duration(cfg.SessionTTLHours)*time.Hour),
		Providers:    buildProviders(cfg),
		DBPinger:     db,
		Version:      cfg.Version,
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting forkful server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

func buildProviders(cfg *config.Config) []oauth.Provider {
	var providers []oauth.Provider
	if cfg.GoogleClientID != "" {
		providers = append(providers, oauth.NewGoogle(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.OAuthCallbackBase+"/auth/google/callback",
		))
	}
	if cfg.GithubClientID != "" {
		providers = append(providers, oauth.NewGithub(
			cfg.GithubClientID,
			cfg.GithubClientSecret,
			cfg.OAuthCallbackBase+"/auth/github/callback",
		))
	}
	return providers
}

// noopAvatars stands in for the blob store when none is configured; every
// stored avatar URI is treated as externally hosted.
type noopAvatars struct{}

func (noopAvatars) Delete(context.Context, string) error { return nil }
func (noopAvatars) Key(string) (string, bool)            { return "", false }
