package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/relay"
	"github.com/solararadio/scmplayer/internal/shared"
)

// maxRelayBody bounds the relay payload; a token message is small.
const maxRelayBody = 1 << 16

// RelayHandler accepts token relay messages on /relay and forwards them to a
// [relay.Listener]. Validation (origin, shape) is the listener's job; this
// handler only maps the HTTP surface onto it.
type RelayHandler struct {
	listener *relay.Listener
	logger   *log.Logger
}

// NewRelayHandler creates a RelayHandler delivering into the given listener.
func NewRelayHandler(listener *relay.Listener, logger *log.Logger) *RelayHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RelayHandler{listener: listener, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *RelayHandler) Routes() []string {
	return []string{"/relay"}
}

func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRelayBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	origin := r.Header.Get("Origin")
	if err := h.listener.Deliver(origin, payload); err != nil {
		switch {
		case errors.Is(err, shared.ErrUntrustedOrigin):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, shared.ErrRelayClosed):
			http.Error(w, "Relay closed", http.StatusGone)
		default:
			http.Error(w, "Invalid message", http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"accepted"}`))
}
