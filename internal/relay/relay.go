// package relay delivers an access token from a detached authorization
// context back to the owning player process over a validated message channel.
//
// The wire contract is normative: a message is accepted only when its origin
// exactly equals the configured trusted origin AND the payload type equals
// [MessageType] with a non-empty token. Anything else is discarded and
// logged, never applied to session state.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/shared"
)

// MessageType is the required value of the payload's type field.
const MessageType = "SPOTIFY_TOKEN"

// Message is the token relay payload. RefreshToken and ExpiresIn are
// optional; a message without them establishes a non-refreshable session.
type Message struct {
	Type         string `json:"type"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// Listener validates inbound relay messages and hands accepted tokens to its
// consumer through a channel. Close is deterministic: once closed, no further
// message is delivered, so stale messages cannot act after teardown.
type Listener struct {
	trustedOrigin string
	logger        *log.Logger
	mu            sync.Mutex
	closed        bool
	ch            chan Message
}

// NewListener creates a Listener accepting messages only from trustedOrigin.
// An empty trustedOrigin yields a listener that rejects everything; there is
// no wildcard or opt-out.
func NewListener(trustedOrigin string, logger *log.Logger) *Listener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Listener{
		trustedOrigin: trustedOrigin,
		logger:        logger,
		ch:            make(chan Message, 8),
	}
}

// Deliver validates a raw payload received from the given origin. Accepted
// messages are queued for [Listener.Messages]; rejected ones are logged and
// dropped without touching any state.
func (l *Listener) Deliver(origin string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return shared.ErrRelayClosed
	}

	if l.trustedOrigin == "" {
		l.logger.Warn("discarding relay message", "origin", origin, "reason", "no trusted origin configured")
		return fmt.Errorf("%w: no trusted origin configured", shared.ErrUntrustedOrigin)
	}
	if origin != l.trustedOrigin {
		l.logger.Warn("discarding relay message", "origin", origin, "reason", "untrusted origin")
		return fmt.Errorf("%w: %q", shared.ErrUntrustedOrigin, origin)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warn("discarding relay message", "origin", origin, "reason", "malformed payload")
		return fmt.Errorf("%w: %v", shared.ErrInvalidMessage, err)
	}
	if msg.Type != MessageType {
		l.logger.Warn("discarding relay message", "origin", origin, "reason", "unexpected type", "type", msg.Type)
		return fmt.Errorf("%w: unexpected type %q", shared.ErrInvalidMessage, msg.Type)
	}
	if msg.Token == "" {
		l.logger.Warn("discarding relay message", "origin", origin, "reason", "empty token")
		return fmt.Errorf("%w: empty token", shared.ErrInvalidMessage)
	}

	select {
	case l.ch <- msg:
	default:
		l.logger.Warn("relay queue full, dropping message", "origin", origin)
		return fmt.Errorf("%w: queue full", shared.ErrInvalidMessage)
	}

	return nil
}

// Messages returns the channel of accepted token messages. The channel is
// closed by [Listener.Close].
func (l *Listener) Messages() <-chan Message {
	return l.ch
}

// Close tears the listener down. Safe to call more than once.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.ch)
}

// Send posts a token message to a relay endpoint, stamping the Origin header
// with the sending context's origin so the receiver can validate the source.
// The target endpoint is specific and configured, never discovered; sending
// a bearer token to an arbitrary receiver would leak it.
func Send(ctx context.Context, client *http.Client, endpoint, origin string, msg Message) error {
	if client == nil {
		client = http.DefaultClient
	}
	msg.Type = MessageType
	if msg.Token == "" {
		return fmt.Errorf("%w: refusing to send empty token", shared.ErrInvalidMessage)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return fmt.Errorf("%w: relay rejected with status %d: %s", shared.ErrInvalidMessage, resp.StatusCode, bytes.TrimSpace(detail))
	}

	return nil
}
