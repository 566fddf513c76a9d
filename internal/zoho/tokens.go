package zoho

import (
	"context"

	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.zoho.com/oauth/v2/auth"
	tokenURL = "https://accounts.zoho.com/oauth/v2/token"
)

// Tokens exchanges the long-lived refresh credential for short-lived access
// tokens. Every AccessToken call performs a fresh exchange against the token
// endpoint; nothing is cached.
type Tokens struct {
	cfg          *oauth2.Config
	refreshToken string
}

func NewTokens(clientID, clientSecret, refreshToken, redirectURI string) *Tokens {
	return newTokens(clientID, clientSecret, refreshToken, redirectURI, oauth2.Endpoint{
		AuthURL:  authURL,
		TokenURL: tokenURL,
	})
}

func newTokens(clientID, clientSecret, refreshToken, redirectURI string, endpoint oauth2.Endpoint) *Tokens {
	return &Tokens{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"ZohoMail.messages.ALL", "ZohoMail.accounts.READ"},
			Endpoint:     endpoint,
		},
		refreshToken: refreshToken,
	}
}

// Configured reports whether a refresh credential is present.
func (t *Tokens) Configured() bool {
	return t.refreshToken != ""
}

// AccessToken performs a refresh-token grant and returns the resulting
// bearer token. The token source starts without an access token, so each
// call hits the token endpoint.
func (t *Tokens) AccessToken(ctx context.Context) (string, error) {
	if t.refreshToken == "" {
		return "", &AuthError{Err: errNoRefreshToken}
	}
	src := t.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: t.refreshToken})
	token, err := src.Token()
	if err != nil {
		return "", &AuthError{Err: err}
	}
	return token.AccessToken, nil
}

// AuthCodeURL returns the authorization URL for the one-time OAuth setup
// screen.
func (t *Tokens) AuthCodeURL(state string) string {
	return t.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token pair during setup.
func (t *Tokens) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	return token, nil
}
