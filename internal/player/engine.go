// package player binds a validated token to a remote playback device and
// exposes transport controls over the filtered playlist catalog.
package player

import "context"

// EventKind enumerates the events an [Engine] emits.
type EventKind int

const (
	// EventReady carries the device id. Emitted exactly once per connection.
	EventReady EventKind = iota
	// EventStateChanged carries the paused flag.
	EventStateChanged
	// EventError signals an unrecoverable engine failure or connection loss.
	EventError
)

// Event is a single engine notification.
type Event struct {
	Kind     EventKind
	DeviceID string
	Paused   bool
	Err      error
}

// Engine is the remote playback engine: it connects to a playback device,
// reports readiness and state changes, and executes transport commands.
//
// Connect is idempotent while a connection is in flight or established: a
// second call must not create a duplicate connection. The events channel is
// closed on disconnect, giving consumers deterministic teardown.
type Engine interface {
	Connect(ctx context.Context) error
	Events() <-chan Event
	Disconnect()

	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
}
