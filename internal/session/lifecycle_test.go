package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/shared"
)

func newTestLifecycle(store Store, tokenURL string, now time.Time) *Lifecycle {
	return NewLifecycle(LifecycleOpts{
		Store:    store,
		ClientID: "client-123",
		TokenURL: tokenURL,
		Now:      func() time.Time { return now },
	})
}

func TestGetValidToken(t *testing.T) {
	now := time.Now()

	t.Run("not authenticated without a token", func(t *testing.T) {
		l := newTestLifecycle(NewMemoryStore(), "", now)
		_, err := l.GetValidToken(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("GetValidToken() error = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("unknown expiry is valid as-is", func(t *testing.T) {
		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{AccessToken: "at"})

		l := newTestLifecycle(store, "", now)
		token, err := l.GetValidToken(context.Background())
		if err != nil {
			t.Fatalf("GetValidToken() error = %v", err)
		}
		if token != "at" {
			t.Errorf("token = %v, want at", token)
		}
	})

	t.Run("relayed token over an expired login is served without refreshing", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{
			AccessToken:  "stale",
			RefreshToken: "rt-old",
			Expiry:       now.Add(-time.Hour),
		})
		WriteSession(store, models.AuthSession{AccessToken: "fresh"})

		l := newTestLifecycle(store, srv.URL, now)
		token, err := l.GetValidToken(context.Background())
		if err != nil {
			t.Fatalf("GetValidToken() error = %v", err)
		}
		if token != "fresh" {
			t.Errorf("token = %v, want fresh", token)
		}
		if called {
			t.Error("refresh was attempted with stale metadata")
		}
	})

	t.Run("61s before expiry returns cached token without refreshing", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{
			AccessToken:  "at",
			RefreshToken: "rt",
			Expiry:       now.Add(61 * time.Second),
		})

		l := newTestLifecycle(store, srv.URL, now)
		token, err := l.GetValidToken(context.Background())
		if err != nil {
			t.Fatalf("GetValidToken() error = %v", err)
		}
		if token != "at" {
			t.Errorf("token = %v, want cached at", token)
		}
		if called {
			t.Error("refresh was attempted inside the skew window")
		}
	})

	t.Run("59s before expiry refreshes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if got := r.FormValue("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %v, want refresh_token", got)
			}
			if got := r.FormValue("refresh_token"); got != "rt" {
				t.Errorf("refresh_token = %v, want rt", got)
			}
			if got := r.FormValue("client_id"); got != "client-123" {
				t.Errorf("client_id = %v, want client-123", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at-new","expires_in":3600}`))
		}))
		defer srv.Close()

		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{
			AccessToken:  "at",
			RefreshToken: "rt",
			Expiry:       now.Add(59 * time.Second),
		})

		l := newTestLifecycle(store, srv.URL, now)
		token, err := l.GetValidToken(context.Background())
		if err != nil {
			t.Fatalf("GetValidToken() error = %v", err)
		}
		if token != "at-new" {
			t.Errorf("token = %v, want at-new", token)
		}

		stored, _ := ReadSession(store)
		if stored.AccessToken != "at-new" {
			t.Errorf("stored token = %v, want at-new", stored.AccessToken)
		}
		if want := now.Add(time.Hour); !stored.Expiry.Equal(want.Truncate(time.Millisecond)) {
			t.Errorf("stored expiry = %v, want %v", stored.Expiry, want)
		}
	})

	t.Run("failed refresh leaves the stored session untouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer srv.Close()

		store := NewMemoryStore()
		expiry := now.Add(30 * time.Second).Truncate(time.Millisecond)
		WriteSession(store, models.AuthSession{AccessToken: "at", RefreshToken: "rt", Expiry: expiry})

		l := newTestLifecycle(store, srv.URL, now)
		token, err := l.GetValidToken(context.Background())
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("GetValidToken() error = %v, want ErrTokenExpired", err)
		}
		if token != "" {
			t.Errorf("token = %v, want empty on failure", token)
		}

		stored, _ := ReadSession(store)
		if stored.AccessToken != "at" || stored.RefreshToken != "rt" || !stored.Expiry.Equal(expiry) {
			t.Errorf("stored session mutated on failure: %+v", stored)
		}
	})

	t.Run("expired session without refresh token cannot refresh", func(t *testing.T) {
		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{AccessToken: "at", Expiry: now.Add(-time.Minute)})

		l := newTestLifecycle(store, "", now)
		_, err := l.GetValidToken(context.Background())
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("GetValidToken() error = %v, want ErrTokenExpired", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	now := time.Now()

	t.Run("requires a refresh token", func(t *testing.T) {
		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{AccessToken: "at"})

		l := newTestLifecycle(store, "", now)
		_, err := l.Refresh(context.Background())
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrNoRefreshToken", err)
		}
	})

	t.Run("rotated refresh token replaces the old one", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","expires_in":3600}`))
		}))
		defer srv.Close()

		store := NewMemoryStore()
		WriteSession(store, models.AuthSession{AccessToken: "at", RefreshToken: "rt-old"})

		l := newTestLifecycle(store, srv.URL, now)
		sess, err := l.Refresh(context.Background())
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if sess.RefreshToken != "rt-new" {
			t.Errorf("refresh token = %v, want rt-new", sess.RefreshToken)
		}

		stored, _ := ReadSession(store)
		if stored.RefreshToken != "rt-new" {
			t.Errorf("stored refresh token = %v, want rt-new", stored.RefreshToken)
		}
	})
}
