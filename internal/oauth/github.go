package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/forkful/forkful/internal/identity"
)

const (
	githubUserInfoURL = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// Github is the GitHub OAuth provider.
type Github struct {
	base
	userInfoURL string
	emailsURL   string
}

// NewGithub creates a GitHub provider.
func NewGithub(clientID, clientSecret, callbackURL string) *Github {
	return &Github{
		base: base{
			config: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  callbackURL,
				Endpoint:     github.Endpoint,
				Scopes:       []string{"read:user", "user:email"},
			},
		},
		userInfoURL: githubUserInfoURL,
		emailsURL:   githubEmailsURL,
	}
}

// Name implements Provider.
func (g *Github) Name() identity.Provider {
	return identity.ProviderGithub
}

type githubUserInfo struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Identify implements Provider. GitHub omits the email from the user
// payload when it is private, so we fall back to the emails endpoint and
// take the primary verified address.
func (g *Github) Identify(ctx context.Context, code string) (identity.Assertion, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return identity.Assertion{}, fmt.Errorf("exchanging github code: %w", err)
	}

	var info githubUserInfo
	if err := g.fetchJSON(ctx, token, g.userInfoURL, &info); err != nil {
		return identity.Assertion{}, err
	}

	if info.Email == "" {
		var emails []githubEmail
		if err := g.fetchJSON(ctx, token, g.emailsURL, &emails); err != nil {
			return identity.Assertion{}, err
		}
		info.Email = primaryEmail(emails)
	}

	return assertGithub(info)
}

func primaryEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func assertGithub(info githubUserInfo) (identity.Assertion, error) {
	if info.Email == "" {
		return identity.Assertion{}, ErrNoEmail
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return identity.Assertion{
		Provider:  identity.ProviderGithub,
		Email:     info.Email,
		Name:      name,
		AvatarURL: info.AvatarURL,
	}, nil
}

// WithHTTPClient overrides the userinfo HTTP client, for tests.
func (g *Github) WithHTTPClient(c *http.Client) *Github {
	g.httpClient = c
	return g
}
