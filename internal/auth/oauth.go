package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the slice of GitHub's /user API response we care about.
// GitHub returns a much larger object; we only unmarshal what we store.
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID, stable
	Login     string `json:"login"`      // GitHub username
	Email     string `json:"email"`      // primary public email (may be empty)
	AvatarURL string `json:"avatar_url"` // profile picture
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. Since this service reviews GitHub-hosted files, signing in with a
// GitHub account is the natural alternative to a password.
//
// The code-for-token exchange runs server-to-server with the ClientSecret;
// the access token never reaches the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a provider. ClientID/ClientSecret come from a
// registered OAuth App; callbackURL must match its configured callback
// exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL to redirect the user to.
//
// state is a random string stored in a short-lived cookie before the
// redirect; the callback handler verifies GitHub echoed the same value.
// That check is what stops CSRF-initiated OAuth flows.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback's authorization code for the user's GitHub
// profile: code → access token (server-to-server), then token → /user API.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the bearer
	// token to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
