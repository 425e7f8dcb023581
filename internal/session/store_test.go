package session

import (
	"testing"
	"time"

	"github.com/solararadio/scmplayer/internal/models"
)

func TestReadSession(t *testing.T) {
	t.Run("empty store yields zero session", func(t *testing.T) {
		sess, err := ReadSession(NewMemoryStore())
		if err != nil {
			t.Fatalf("ReadSession() error = %v", err)
		}
		if sess.AccessToken != "" || sess.RefreshToken != "" || !sess.Expiry.IsZero() {
			t.Errorf("ReadSession() = %+v, want zero session", sess)
		}
	})

	t.Run("parses expiry as epoch milliseconds", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set(KeyAccessToken, "at")
		store.Set(KeyTokenExpiry, "1700000000000")

		sess, err := ReadSession(store)
		if err != nil {
			t.Fatalf("ReadSession() error = %v", err)
		}
		if want := time.UnixMilli(1700000000000); !sess.Expiry.Equal(want) {
			t.Errorf("expiry = %v, want %v", sess.Expiry, want)
		}
	})

	t.Run("malformed expiry is treated as unknown", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set(KeyAccessToken, "at")
		store.Set(KeyTokenExpiry, "not-a-number")

		sess, err := ReadSession(store)
		if err != nil {
			t.Fatalf("ReadSession() error = %v", err)
		}
		if !sess.Expiry.IsZero() {
			t.Errorf("expiry = %v, want zero", sess.Expiry)
		}
	})
}

func TestWriteSession(t *testing.T) {
	t.Run("round trips a full session", func(t *testing.T) {
		store := NewMemoryStore()
		expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)
		in := models.AuthSession{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}

		if err := WriteSession(store, in); err != nil {
			t.Fatalf("WriteSession() error = %v", err)
		}

		out, err := ReadSession(store)
		if err != nil {
			t.Fatalf("ReadSession() error = %v", err)
		}
		if out.AccessToken != "at" || out.RefreshToken != "rt" || !out.Expiry.Equal(expiry) {
			t.Errorf("round trip = %+v, want %+v", out, in)
		}
	})

	t.Run("refuses an empty access token", func(t *testing.T) {
		if err := WriteSession(NewMemoryStore(), models.AuthSession{}); err == nil {
			t.Error("WriteSession() accepted an empty access token")
		}
	})

	t.Run("token-only session clears stale metadata", func(t *testing.T) {
		store := NewMemoryStore()
		expired := time.Now().Add(-time.Hour)
		WriteSession(store, models.AuthSession{AccessToken: "at-1", RefreshToken: "rt-1", Expiry: expired})
		WriteSession(store, models.AuthSession{AccessToken: "at-2"})

		out, _ := ReadSession(store)
		if out.AccessToken != "at-2" {
			t.Errorf("access token = %v, want at-2", out.AccessToken)
		}
		if out.RefreshToken != "" {
			t.Errorf("refresh token = %v, want cleared", out.RefreshToken)
		}
		if !out.Expiry.IsZero() {
			t.Errorf("expiry = %v, want cleared", out.Expiry)
		}
	})
}

func TestClearSession(t *testing.T) {
	store := NewMemoryStore()
	store.Set(KeyAccessToken, "at")
	store.Set(KeyRefreshToken, "rt")
	store.Set(KeyTokenExpiry, "123")
	store.Set(KeyCodeVerifier, "v")

	if err := ClearSession(store); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyCodeVerifier} {
		if v, _ := store.Get(key); v != "" {
			t.Errorf("key %s = %q after clear, want empty", key, v)
		}
	}
}
