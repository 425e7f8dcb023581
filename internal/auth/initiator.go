package auth

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"golang.org/x/oauth2"
)

// Initiator begins the PKCE authorization flow: it generates the verifier,
// persists it so it survives the round trip through the provider, and builds
// the authorization URL the user's browser is sent to.
type Initiator struct {
	config Config
	store  session.Store
	logger *log.Logger
}

// NewInitiator creates an Initiator persisting verifiers in the given store.
func NewInitiator(config Config, store session.Store, logger *log.Logger) *Initiator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Initiator{config: config, store: store, logger: logger}
}

// Begin generates a fresh verifier, stores it, and returns the authorization
// URL carrying the derived S256 challenge and the given CSRF state.
//
// Fails closed: if the verifier cannot be generated or persisted, no URL is
// returned and the flow must not proceed.
func (i *Initiator) Begin(state string) (string, error) {
	verifier, err := GenerateVerifier(DefaultVerifierLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	// Persisted before navigation: the exchange happens after a full
	// redirect and must find the matching verifier.
	if err := i.store.Set(session.KeyCodeVerifier, verifier); err != nil {
		return "", fmt.Errorf("%w: failed to persist code verifier: %v", shared.ErrAuthFailed, err)
	}

	authURL := i.config.oauth2Config().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	i.logger.Debug("authorization initiated", "state", state)
	return authURL, nil
}
