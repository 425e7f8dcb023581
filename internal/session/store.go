// package session persists the authentication session and keeps the stored
// access token valid across expiry.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/solararadio/scmplayer/internal/models"
)

// Storage keys. The names mirror the browser client this player replaced so
// a session database is self-describing.
const (
	KeyAccessToken  = "spotify_access_token"
	KeyRefreshToken = "spotify_refresh_token"
	KeyTokenExpiry  = "spotify_token_expiry"
	KeyCodeVerifier = "spotify_code_verifier"
)

// Store is the local key-value persistence behind the session. Implementations
// must return "" with a nil error for absent keys.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear(key string) error
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// ReadSession loads the stored AuthSession. Absent keys yield zero fields;
// a malformed expiry is treated as unknown rather than failing the read.
func ReadSession(s Store) (models.AuthSession, error) {
	var sess models.AuthSession

	access, err := s.Get(KeyAccessToken)
	if err != nil {
		return sess, fmt.Errorf("failed to read access token: %w", err)
	}
	refresh, err := s.Get(KeyRefreshToken)
	if err != nil {
		return sess, fmt.Errorf("failed to read refresh token: %w", err)
	}
	expiry, err := s.Get(KeyTokenExpiry)
	if err != nil {
		return sess, fmt.Errorf("failed to read token expiry: %w", err)
	}

	sess.AccessToken = access
	sess.RefreshToken = refresh
	if expiry != "" {
		if ms, parseErr := strconv.ParseInt(expiry, 10, 64); parseErr == nil {
			sess.Expiry = time.UnixMilli(ms)
		}
	}

	return sess, nil
}

// WriteSession persists the full AuthSession. The access token is written
// last so a reader never observes a token without its refresh token and
// expiry already in place. Absent fields clear their keys: a session without
// a refresh token or expiry must never inherit them from an earlier one.
func WriteSession(s Store, sess models.AuthSession) error {
	if sess.AccessToken == "" {
		return fmt.Errorf("refusing to store empty access token")
	}

	if sess.RefreshToken != "" {
		if err := s.Set(KeyRefreshToken, sess.RefreshToken); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
	} else if err := s.Clear(KeyRefreshToken); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	if !sess.Expiry.IsZero() {
		if err := s.Set(KeyTokenExpiry, strconv.FormatInt(sess.Expiry.UnixMilli(), 10)); err != nil {
			return fmt.Errorf("failed to store token expiry: %w", err)
		}
	} else if err := s.Clear(KeyTokenExpiry); err != nil {
		return fmt.Errorf("failed to clear token expiry: %w", err)
	}
	if err := s.Set(KeyAccessToken, sess.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}

	return nil
}

// ClearSession removes all session keys, including any pending code verifier.
func ClearSession(s Store) error {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyCodeVerifier} {
		if err := s.Clear(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}
