package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/forkful/forkful/internal/identity"
)

// ErrNoEmail is returned when a provider's userinfo payload carries no
// usable email address. Without an email there is nothing to reconcile.
var ErrNoEmail = errors.New("provider returned no email address")

// Provider performs the code-for-identity half of an OAuth login. The
// handshake up to the callback is handled by the transport; Identify turns
// the callback code into a verified assertion.
type Provider interface {
	Name() identity.Provider
	// AuthCodeURL builds the redirect URL that starts the handshake.
	AuthCodeURL(state string) string
	// Identify exchanges the callback code and fetches the user's profile.
	Identify(ctx context.Context, code string) (identity.Assertion, error)
}

// GenerateState produces the random state value bound to one handshake via
// a cookie, checked again on callback.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// base holds the pieces shared by concrete providers.
type base struct {
	config *oauth2.Config
	// httpClient is injectable for tests; nil means http.DefaultClient.
	httpClient *http.Client
}

func (b *base) AuthCodeURL(state string) string {
	return b.config.AuthCodeURL(state)
}

func (b *base) client() *http.Client {
	if b.httpClient != nil {
		return b.httpClient
	}
	return http.DefaultClient
}

// fetchJSON GETs url with the token's bearer credential and decodes the
// response into out.
func (b *base) fetchJSON(ctx context.Context, token *oauth2.Token, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client().Do(req)
	if err != nil {
		return fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("userinfo request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading userinfo response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing userinfo response: %w", err)
	}

	return nil
}
