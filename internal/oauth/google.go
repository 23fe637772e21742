package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/forkful/forkful/internal/identity"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google is the Google OAuth provider.
type Google struct {
	base
	userInfoURL string
}

// NewGoogle creates a Google provider. callbackURL is the absolute URL of
// our callback endpoint as registered with Google.
func NewGoogle(clientID, clientSecret, callbackURL string) *Google {
	return &Google{
		base: base{
			config: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  callbackURL,
				Endpoint:     google.Endpoint,
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
			},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Name implements Provider.
func (g *Google) Name() identity.Provider {
	return identity.ProviderGoogle
}

type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Identify implements Provider.
func (g *Google) Identify(ctx context.Context, code string) (identity.Assertion, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return identity.Assertion{}, fmt.Errorf("exchanging google code: %w", err)
	}

	var info googleUserInfo
	if err := g.fetchJSON(ctx, token, g.userInfoURL, &info); err != nil {
		return identity.Assertion{}, err
	}

	return assertGoogle(info)
}

func assertGoogle(info googleUserInfo) (identity.Assertion, error) {
	if info.Email == "" {
		return identity.Assertion{}, ErrNoEmail
	}
	return identity.Assertion{
		Provider:  identity.ProviderGoogle,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

// WithHTTPClient overrides the userinfo HTTP client, for tests.
func (g *Google) WithHTTPClient(c *http.Client) *Google {
	g.httpClient = c
	return g
}
