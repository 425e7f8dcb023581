package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	itesting "github.com/solararadio/scmplayer/internal/testing"
)

func testConfig(tokenURL string) Config {
	return Config{
		ClientID:    "client-123",
		RedirectURI: "http://127.0.0.1:3000/callback",
		Scopes:      []string{"streaming", "user-read-email"},
		AuthURL:     "https://accounts.example.com/authorize",
		TokenURL:    tokenURL,
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("rejects missing client id", func(t *testing.T) {
		_, err := NewConfig(shared.SpotifyConfig{RedirectURI: "http://127.0.0.1:3000/callback"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("NewConfig() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("rejects relative redirect uri", func(t *testing.T) {
		_, err := NewConfig(shared.SpotifyConfig{ClientID: "abc", RedirectURI: "/callback"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("NewConfig() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("accepts complete config", func(t *testing.T) {
		cfg, err := NewConfig(shared.SpotifyConfig{
			ClientID:    "abc",
			RedirectURI: "http://127.0.0.1:3000/callback",
			Scopes:      []string{"streaming"},
		})
		if err != nil {
			t.Fatalf("NewConfig() error = %v", err)
		}
		if cfg.ClientID != "abc" {
			t.Errorf("ClientID = %v, want abc", cfg.ClientID)
		}
	})
}

func TestInitiatorBegin(t *testing.T) {
	t.Run("builds authorization url with PKCE parameters", func(t *testing.T) {
		store := session.NewMemoryStore()
		initiator := NewInitiator(testConfig(""), store, nil)

		rawURL, err := initiator.Begin("state-xyz")
		if err != nil {
			t.Fatalf("Begin() error = %v", err)
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			t.Fatalf("Begin() returned unparseable URL: %v", err)
		}
		q := u.Query()

		if got := q.Get("response_type"); got != "code" {
			t.Errorf("response_type = %v, want code", got)
		}
		if got := q.Get("client_id"); got != "client-123" {
			t.Errorf("client_id = %v, want client-123", got)
		}
		if got := q.Get("redirect_uri"); got != "http://127.0.0.1:3000/callback" {
			t.Errorf("redirect_uri = %v", got)
		}
		if got := q.Get("scope"); got != "streaming user-read-email" {
			t.Errorf("scope = %v, want space-joined scopes", got)
		}
		if got := q.Get("code_challenge_method"); got != "S256" {
			t.Errorf("code_challenge_method = %v, want S256", got)
		}
		if got := q.Get("state"); got != "state-xyz" {
			t.Errorf("state = %v, want state-xyz", got)
		}

		verifier, _ := store.Get(session.KeyCodeVerifier)
		if verifier == "" {
			t.Fatal("verifier was not persisted")
		}
		if got := q.Get("code_challenge"); got != DeriveChallenge(verifier) {
			t.Errorf("code_challenge = %v, want challenge of stored verifier", got)
		}
	})

	t.Run("fails closed when the verifier cannot be persisted", func(t *testing.T) {
		initiator := NewInitiator(testConfig(""), &itesting.FailingStore{}, nil)

		rawURL, err := initiator.Begin("state-xyz")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("Begin() error = %v, want ErrAuthFailed", err)
		}
		if rawURL != "" {
			t.Errorf("Begin() returned URL %q despite store failure", rawURL)
		}
	})
}

func TestExchangerExchange(t *testing.T) {
	t.Run("stores the full session and clears the verifier", func(t *testing.T) {
		var gotVerifier, gotGrant, gotCode string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			gotVerifier = r.FormValue("code_verifier")
			gotGrant = r.FormValue("grant_type")
			gotCode = r.FormValue("code")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"Bearer"}`))
		}))
		defer srv.Close()

		store := session.NewMemoryStore()
		store.Set(session.KeyCodeVerifier, "verifier-abc")
		exchanger := NewExchanger(testConfig(srv.URL), store, nil)

		before := time.Now()
		sess, err := exchanger.Exchange(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}

		if gotGrant != "authorization_code" {
			t.Errorf("grant_type = %v, want authorization_code", gotGrant)
		}
		if gotCode != "abc123" {
			t.Errorf("code = %v, want abc123", gotCode)
		}
		if gotVerifier != "verifier-abc" {
			t.Errorf("code_verifier = %v, want verifier-abc", gotVerifier)
		}
		if sess.AccessToken != "at-1" || sess.RefreshToken != "rt-1" {
			t.Errorf("session = %+v, want at-1/rt-1", sess)
		}

		wantExpiry := before.Add(3600 * time.Second)
		if sess.Expiry.Before(wantExpiry.Add(-5*time.Second)) || sess.Expiry.After(wantExpiry.Add(5*time.Second)) {
			t.Errorf("expiry = %v, want ≈ %v", sess.Expiry, wantExpiry)
		}

		stored, err := session.ReadSession(store)
		if err != nil {
			t.Fatalf("ReadSession() error = %v", err)
		}
		if stored.AccessToken != "at-1" {
			t.Errorf("stored access token = %v, want at-1", stored.AccessToken)
		}

		verifier, _ := store.Get(session.KeyCodeVerifier)
		if verifier != "" {
			t.Error("verifier was not cleared after exchange")
		}
	})

	t.Run("missing verifier is fatal without calling the provider", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		exchanger := NewExchanger(testConfig(srv.URL), session.NewMemoryStore(), nil)
		_, err := exchanger.Exchange(context.Background(), "abc123")
		if !errors.Is(err, shared.ErrMissingVerifier) {
			t.Errorf("Exchange() error = %v, want ErrMissingVerifier", err)
		}
		if called {
			t.Error("token endpoint was called despite missing verifier")
		}
	})

	t.Run("surfaces the provider error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
		}))
		defer srv.Close()

		store := session.NewMemoryStore()
		store.Set(session.KeyCodeVerifier, "verifier-abc")
		exchanger := NewExchanger(testConfig(srv.URL), store, nil)

		_, err := exchanger.Exchange(context.Background(), "stale-code")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("Exchange() error = %v, want ErrAuthFailed", err)
		}
		if !strings.Contains(err.Error(), "invalid_grant") {
			t.Errorf("error %q does not carry the provider body", err)
		}

		stored, _ := session.ReadSession(store)
		if stored.AccessToken != "" {
			t.Error("failed exchange mutated the stored session")
		}
	})

	t.Run("rejects empty code", func(t *testing.T) {
		exchanger := NewExchanger(testConfig(""), session.NewMemoryStore(), nil)
		_, err := exchanger.Exchange(context.Background(), "")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("Exchange() error = %v, want ErrAuthFailed", err)
		}
	})
}
