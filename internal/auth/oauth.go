package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/xid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	// StateCookie holds the OAuth state between the redirect to GitHub and
	// the callback.
	StateCookie = "oauth_state"

	githubUserURL = "https://api.github.com/user"
)

// ErrStateMismatch is returned when the callback state does not match the
// state cookie.
var ErrStateMismatch = errors.New("auth: oauth state mismatch")

// GitHubUser is the subset of the GitHub /user response used to link an
// account.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

// GitHubProvider runs the OAuth authorization code flow against GitHub.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

// NewGitHubProvider creates a provider requesting read:user and user:email.
// callbackURL must match the one registered on the GitHub OAuth app.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL: githubUserURL,
	}
}

// newGitHubProviderWithEndpoints points the provider at a fake server.
func newGitHubProviderWithEndpoints(endpoint oauth2.Endpoint, userURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			RedirectURL:  "http://localhost/auth/github/callback",
			Scopes:       []string{"read:user"},
			Endpoint:     endpoint,
		},
		userURL: userURL,
	}
}

// AuthURL returns the GitHub authorization URL for state.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the GitHub profile of the user
// who approved it.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 || gh.Login == "" {
		return nil, errors.New("auth: GitHub returned an incomplete user")
	}
	return &gh, nil
}

// NewState generates an OAuth state value and stores it in a short-lived
// cookie.
func NewState(w http.ResponseWriter, secure bool) string {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// CheckState compares the callback's state against the cookie and clears
// the cookie either way.
func CheckState(w http.ResponseWriter, r *http.Request, secure bool) error {
	c, err := r.Cookie(StateCookie)
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     "/auth/github",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		return ErrStateMismatch
	}
	return nil
}
