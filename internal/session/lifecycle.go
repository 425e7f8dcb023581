package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/shared"
)

// RefreshSkew is subtracted from the stored expiry when deciding whether the
// access token is still usable, so a token is refreshed before it actually
// lapses mid-request.
const RefreshSkew = 60 * time.Second

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// Lifecycle answers "is the stored token still valid" and transparently
// refreshes it when it is not. Refresh is the only failure the player
// recovers from locally; everything else routes back to authorization.
type Lifecycle struct {
	store    Store
	clientID string
	tokenURL string
	client   *http.Client
	logger   *log.Logger
	now      func() time.Time
	mu       sync.Mutex
}

// LifecycleOpts contains dependencies for creating a Lifecycle.
type LifecycleOpts struct {
	Store      Store
	ClientID   string
	TokenURL   string
	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// NewLifecycle creates a Lifecycle over the given store.
func NewLifecycle(opts LifecycleOpts) *Lifecycle {
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Lifecycle{
		store:    opts.Store,
		clientID: opts.ClientID,
		tokenURL: opts.TokenURL,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// GetValidToken returns the stored access token if it expires more than
// RefreshSkew from now, refreshing it first otherwise. An error means the
// caller must route the user back through authorization; the prior (expired)
// token is left in the store for diagnostics.
func (l *Lifecycle) GetValidToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sess, err := ReadSession(l.store)
	if err != nil {
		return "", err
	}
	if sess.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}

	// Unknown expiry: valid until the provider proves otherwise.
	if sess.Expiry.IsZero() {
		return sess.AccessToken, nil
	}

	if l.now().Before(sess.Expiry.Add(-RefreshSkew)) {
		return sess.AccessToken, nil
	}

	refreshed, err := l.refreshLocked(ctx, sess)
	if err != nil {
		l.logger.Warn("token refresh failed", "error", err)
		return "", fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	return refreshed.AccessToken, nil
}

// Refresh forces a refresh of the stored session regardless of expiry.
func (l *Lifecycle) Refresh(ctx context.Context) (models.AuthSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sess, err := ReadSession(l.store)
	if err != nil {
		return models.AuthSession{}, err
	}

	return l.refreshLocked(ctx, sess)
}

// refreshLocked performs the refresh_token grant. On any failure the stored
// session is left untouched. The provider may rotate the refresh token; when
// it does, the new one replaces the old.
func (l *Lifecycle) refreshLocked(ctx context.Context, sess models.AuthSession) (models.AuthSession, error) {
	if !sess.Refreshable() {
		return models.AuthSession{}, shared.ErrNoRefreshToken
	}

	form := url.Values{
		"client_id":     {l.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {sess.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.AuthSession{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		return models.AuthSession{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
	if err != nil {
		return models.AuthSession{}, fmt.Errorf("%w: reading response: %v", shared.ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.AuthSession{}, fmt.Errorf("%w: status %d: %s", shared.ErrRefreshFailed, resp.StatusCode, bytes.TrimSpace(body))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.AuthSession{}, fmt.Errorf("%w: decoding response: %v", shared.ErrRefreshFailed, err)
	}
	if payload.AccessToken == "" {
		return models.AuthSession{}, fmt.Errorf("%w: empty access token in response", shared.ErrRefreshFailed)
	}

	next := sess
	next.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		next.RefreshToken = payload.RefreshToken
	}
	if payload.ExpiresIn > 0 {
		next.Expiry = l.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	if err := WriteSession(l.store, next); err != nil {
		return models.AuthSession{}, err
	}

	l.logger.Info("access token refreshed", "expiry", next.Expiry)
	return next, nil
}
