// package auth implements the PKCE authorization-code flow against the
// Spotify accounts service: verifier/challenge generation, authorization URL
// construction, and the code-for-token exchange.
package auth

import (
	"fmt"
	"net/url"

	"github.com/solararadio/scmplayer/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Config carries the static OAuth settings shared by the initiator and the
// exchanger. The endpoints default to the Spotify accounts service and are
// overridable for tests.
type Config struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	AuthURL     string
	TokenURL    string
}

// NewConfig builds a Config from the application configuration, failing fast
// on a missing client id or malformed redirect URI.
func NewConfig(sc shared.SpotifyConfig) (Config, error) {
	if sc.ClientID == "" {
		return Config{}, fmt.Errorf("%w: missing spotify client_id", shared.ErrInvalidConfig)
	}

	u, err := url.Parse(sc.RedirectURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("%w: malformed redirect_uri %q", shared.ErrInvalidConfig, sc.RedirectURI)
	}

	return Config{
		ClientID:    sc.ClientID,
		RedirectURI: sc.RedirectURI,
		Scopes:      sc.Scopes,
		AuthURL:     spotifyAuthURL,
		TokenURL:    spotifyTokenURL,
	}, nil
}

// oauth2Config materializes the [oauth2.Config] for this public client.
// No client secret: possession of the PKCE verifier proves the client.
func (c Config) oauth2Config() *oauth2.Config {
	authURL := c.AuthURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURI,
		Scopes:      c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}
