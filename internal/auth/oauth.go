package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"`      // GitHub username, e.g. "sakif"
	Name      string `json:"name"`       // Display name (empty if unset)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// Provider wraps golang.org/x/oauth2 for the Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Our server redirects the user to the provider's authorization endpoint.
//  2. The user approves the request there.
//  3. The provider redirects back to CallbackURL with a short-lived "code".
//  4. Our server exchanges the code for an access token (server-to-server,
//     using the client secret — the token never touches the browser).
//  5. Our server calls the user-info endpoint with the token.
//
// The endpoints are configurable so the same adapter drives both real GitHub
// and the mock provider in cmd/mockoauth during local/integration testing —
// only the URLs differ, never the flow.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGitHub creates a Provider against the real GitHub OAuth endpoints.
//
// You get clientID and clientSecret by registering an OAuth App at
// https://github.com/settings/developers. callbackURL must match the
// registered "Authorization callback URL" exactly.
func NewGitHub(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userInfoURL: "https://api.github.com/user",
	}
}

// NewCustom creates a Provider with explicit endpoints — used with the mock
// OAuth server. authURL is the browser-facing authorize endpoint; tokenURL
// and userInfoURL are called server-to-server, so the two may live on
// different base URLs (e.g. inside and outside a compose network).
func NewCustom(clientID, clientSecret, callbackURL, authURL, tokenURL, userInfoURL string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"user:email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userInfoURL: userInfoURL,
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string we generate and store in a cookie before
// redirecting. When the provider calls back, we verify the returned state
// matches the cookie — this prevents CSRF attacks where an attacker tricks a
// browser into completing an OAuth flow for the attacker's account.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// provider user profile. This is the core of the callback handler.
func (p *Provider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling user-info endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: user-info endpoint returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding user-info response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: provider returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
