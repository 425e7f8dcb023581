package player

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/solararadio/scmplayer/internal/auth"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/services"
	"github.com/solararadio/scmplayer/internal/session"
	itesting "github.com/solararadio/scmplayer/internal/testing"
)

// tokenedCatalog resolves the access token through the session lifecycle on
// every fetch, recording what it saw, then delegates to the inner catalog.
type tokenedCatalog struct {
	mu        sync.Mutex
	lifecycle *session.Lifecycle
	inner     *itesting.MockCatalog
	tokens    []string
}

func (c *tokenedCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	token, err := c.lifecycle.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tokens = append(c.tokens, token)
	c.mu.Unlock()
	return c.inner.Playlists(ctx)
}

func (c *tokenedCatalog) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// TestLoginToPlaybackFlow drives the whole pipeline once: authorization
// begins, the code is exchanged for tokens, the session is persisted, the
// lifecycle serves the token, and the controller binds a device and starts
// playback with it.
func TestLoginToPlaybackFlow(t *testing.T) {
	var (
		wantVerifier string
		refreshed    bool
	)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		switch r.FormValue("grant_type") {
		case "authorization_code":
			if got := r.FormValue("code"); got != "abc123" {
				t.Errorf("code = %v, want abc123", got)
			}
			if got := r.FormValue("code_verifier"); got != wantVerifier {
				t.Errorf("code_verifier = %v, want the stored verifier", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "flow-at",
				"refresh_token": "flow-rt",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		case "refresh_token":
			refreshed = true
			http.Error(w, "unexpected refresh", http.StatusBadRequest)
		default:
			t.Errorf("unexpected grant_type %q", r.FormValue("grant_type"))
			http.Error(w, "bad grant", http.StatusBadRequest)
		}
	}))
	defer tokenSrv.Close()

	store := session.NewMemoryStore()
	cfg := auth.Config{
		ClientID:    "client-123",
		RedirectURI: "http://127.0.0.1:8080/callback",
		TokenURL:    tokenSrv.URL,
	}

	if _, err := auth.NewInitiator(cfg, store, nil).Begin("state-1"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	wantVerifier, _ = store.Get(session.KeyCodeVerifier)
	if wantVerifier == "" {
		t.Fatal("Begin() did not persist a code verifier")
	}

	sess, err := auth.NewExchanger(cfg, store, nil).Exchange(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if sess.AccessToken != "flow-at" || sess.RefreshToken != "flow-rt" {
		t.Fatalf("session = %+v, want the provider's token pair", sess)
	}

	lifecycle := session.NewLifecycle(session.LifecycleOpts{
		Store:    store,
		ClientID: "client-123",
		TokenURL: tokenSrv.URL,
	})

	api := &itesting.MockTransport{}
	api.SetDevices([]services.Device{{ID: "dev-1", Name: "Desk", IsActive: true}})
	catalog := &tokenedCatalog{lifecycle: lifecycle, inner: testCatalog()}
	starter := &itesting.MockStarter{}

	c := NewController(ControllerOpts{
		Engine: NewConnectEngine(ConnectEngineOpts{
			API:      api,
			Interval: 5 * time.Millisecond,
		}),
		Catalog:   catalog,
		Starter:   starter,
		Prefix:    "SCM",
		Selection: "first",
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()
	waitForState(t, c, Bound)

	plays := starter.Calls()
	if len(plays) != 1 || plays[0].DeviceID != "dev-1" || plays[0].ContextURI != "spotify:playlist:p1" {
		t.Fatalf("plays = %+v, want one play of p1 on dev-1", plays)
	}
	if tokens := catalog.seen(); len(tokens) != 1 || tokens[0] != "flow-at" {
		t.Errorf("catalog tokens = %v, want the exchanged token exactly once", tokens)
	}
	if refreshed {
		t.Error("a fresh token was refreshed")
	}
}
