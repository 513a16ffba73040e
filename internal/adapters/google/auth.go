package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"

	"replydesk/internal/domain"
)

// business.manage covers locations, reviews, and replies; userinfo.email
// identifies which Google account got connected.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/business.manage",
	"https://www.googleapis.com/auth/userinfo.email",
}

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// Authenticator runs the three-legged OAuth flow and token refreshes.
type Authenticator struct {
	cfg         *oauth2.Config
	userinfoURL string
}

func NewAuthenticator(clientID, clientSecret, redirectURL string) *Authenticator {
	return &Authenticator{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       oauthScopes,
			Endpoint:     oauthgoogle.Endpoint,
		},
		userinfoURL: userinfoEndpoint,
	}
}

// AuthCodeURL asks for offline access so a refresh token comes back, and
// forces the consent screen because Google only issues the refresh token on
// consented grants.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (a *Authenticator) Exchange(ctx context.Context, code string) (string, domain.Credentials, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return "", domain.Credentials{}, fmt.Errorf("code exchange (%v): %w", err, domain.ErrAuth)
	}
	email, err := a.fetchEmail(ctx, tok)
	if err != nil {
		return "", domain.Credentials{}, err
	}
	return email, credentials(tok), nil
}

func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	ts := a.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("token refresh (%v): %w", err, domain.ErrAuth)
	}
	return credentials(tok), nil
}

func (a *Authenticator) fetchEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	hc := oauth2.NewClient(ctx, a.cfg.TokenSource(ctx, tok))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userinfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo status %d: %w", resp.StatusCode, domain.ErrAuth)
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Email == "" {
		return "", fmt.Errorf("userinfo carries no email: %w", domain.ErrAuth)
	}
	return body.Email, nil
}

// credentials flattens an oauth2 token; empty refresh tokens and zero
// expiries become nil so reconnects never wipe stored values.
func credentials(tok *oauth2.Token) domain.Credentials {
	c := domain.Credentials{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		rt := tok.RefreshToken
		c.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		e := tok.Expiry.UTC()
		c.Expiry = &e
	}
	return c
}
