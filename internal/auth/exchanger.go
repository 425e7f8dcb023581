package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code and the previously stored PKCE
// verifier for an access/refresh token pair.
type Exchanger struct {
	config Config
	store  session.Store
	logger *log.Logger
}

// NewExchanger creates an Exchanger reading verifiers from and writing
// sessions to the given store.
func NewExchanger(config Config, store session.Store, logger *log.Logger) *Exchanger {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exchanger{config: config, store: store, logger: logger}
}

// Exchange performs the authorization_code grant. The stored session is
// written in full before the verifier is cleared; the verifier is single-use.
//
// A code arriving without a stored verifier is a flow-integrity violation and
// is fatal, not retried. A provider rejection surfaces the provider's error
// body verbatim; authorization codes are single-use, so the exchange is never
// retried automatically.
func (e *Exchanger) Exchange(ctx context.Context, code string) (models.AuthSession, error) {
	if code == "" {
		return models.AuthSession{}, fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	verifier, err := e.store.Get(session.KeyCodeVerifier)
	if err != nil {
		return models.AuthSession{}, fmt.Errorf("failed to read code verifier: %w", err)
	}
	if verifier == "" {
		return models.AuthSession{}, shared.ErrMissingVerifier
	}

	token, err := e.config.oauth2Config().Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return models.AuthSession{}, fmt.Errorf("%w: %s", shared.ErrAuthFailed, strings.TrimSpace(string(retrieveErr.Body)))
		}
		return models.AuthSession{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if token.AccessToken == "" {
		return models.AuthSession{}, fmt.Errorf("%w: provider returned empty access token", shared.ErrAuthFailed)
	}

	sess := models.AuthSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	if err := session.WriteSession(e.store, sess); err != nil {
		return models.AuthSession{}, err
	}

	// The verifier matched its code; it must never be reused.
	if err := e.store.Clear(session.KeyCodeVerifier); err != nil {
		e.logger.Warn("failed to clear code verifier", "error", err)
	}

	e.logger.Info("authorization code exchanged", "refreshable", sess.Refreshable(), "expiry", sess.Expiry)
	return sess, nil
}
