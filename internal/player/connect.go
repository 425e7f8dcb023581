package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/services"
	"github.com/solararadio/scmplayer/internal/shared"
)

// maxPollFailures is how many consecutive polling errors are tolerated
// before the connection is considered lost.
const maxPollFailures = 3

// defaultPollInterval is the Connect state polling cadence.
const defaultPollInterval = 2 * time.Second

// ConnectEngine implements [Engine] over the Spotify Connect Web API,
// adapting polled device and player state into the evented contract.
type ConnectEngine struct {
	api        services.Transport
	deviceName string
	interval   time.Duration
	logger     *log.Logger

	mu          sync.Mutex
	connected   bool
	generation  int
	cancel      context.CancelFunc
	events      chan Event
	deviceID    string
	paused      bool
	pausedKnown bool
}

// ConnectEngineOpts contains dependencies for creating a ConnectEngine.
type ConnectEngineOpts struct {
	API services.Transport
	// DeviceName, when set, binds to the Connect device with this name;
	// otherwise the first active device wins, falling back to the first
	// listed one.
	DeviceName string
	Interval   time.Duration
	Logger     *log.Logger
}

// NewConnectEngine creates a disconnected engine.
func NewConnectEngine(opts ConnectEngineOpts) *ConnectEngine {
	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &ConnectEngine{
		api:        opts.API,
		deviceName: opts.DeviceName,
		interval:   opts.Interval,
		logger:     opts.Logger,
	}
}

// Connect starts polling for a device. Idempotent while connected: a second
// call returns nil without starting a duplicate poller. After Disconnect, or
// after the poller exits on an error, the engine can connect again; the new
// connection emits a fresh ready event on a fresh channel.
func (e *ConnectEngine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.connected {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.connected = true
	e.generation++
	e.cancel = cancel
	e.events = make(chan Event, 8)
	e.deviceID = ""
	e.pausedKnown = false

	go e.run(runCtx, e.generation, e.events)
	return nil
}

// Events returns the current connection's event channel. The poller closes
// it when the connection ends.
func (e *ConnectEngine) Events() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events
}

// Disconnect stops polling. The event channel is closed by the poller once
// it observes the cancellation.
func (e *ConnectEngine) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.connected {
		return
	}
	e.connected = false
	e.cancel()
}

// run polls for a device until one is found, then polls player state,
// emitting a state-change event whenever the paused flag flips. A stale
// poller (superseded by a reconnect) never writes engine state.
func (e *ConnectEngine) run(ctx context.Context, gen int, events chan Event) {
	defer close(events)
	defer e.finish(gen)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	deviceID := ""
	failures := 0

	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	fail := func(err error) bool {
		if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
			emit(Event{Kind: EventError, Err: err})
			return true
		}
		failures++
		if failures >= maxPollFailures {
			emit(Event{Kind: EventError, Err: fmt.Errorf("%w: %v", shared.ErrEngineClosed, err)})
			return true
		}
		e.logger.Debug("poll failed", "error", err, "failures", failures)
		return false
	}

	for {
		if deviceID == "" {
			devices, err := e.api.Devices(ctx)
			switch {
			case err != nil:
				if fail(err) {
					return
				}
			default:
				failures = 0
				if picked := e.pickDevice(devices); picked != "" {
					deviceID = picked
					e.setDeviceID(gen, picked)
					if !emit(Event{Kind: EventReady, DeviceID: picked}) {
						return
					}
				}
			}
		} else {
			state, err := e.api.State(ctx)
			switch {
			case err != nil:
				if fail(err) {
					return
				}
			case state != nil:
				failures = 0
				paused := !state.IsPlaying
				if changed := e.setPaused(gen, paused); changed {
					if !emit(Event{Kind: EventStateChanged, Paused: paused}) {
						return
					}
				}
			default:
				failures = 0
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// finish marks the connection ended when its poller exits, including exits
// caused by a terminal poll error, so a later Connect starts a fresh
// connection instead of handing out the closed event channel.
func (e *ConnectEngine) finish(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	if e.connected {
		e.connected = false
		e.cancel()
	}
	e.deviceID = ""
}

func (e *ConnectEngine) setDeviceID(gen int, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	e.deviceID = id
}

func (e *ConnectEngine) setPaused(gen int, paused bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return false
	}
	changed := !e.pausedKnown || paused != e.paused
	e.paused = paused
	e.pausedKnown = true
	return changed
}

func (e *ConnectEngine) pickDevice(devices []services.Device) string {
	if len(devices) == 0 {
		return ""
	}

	if e.deviceName != "" {
		for _, d := range devices {
			if d.Name == e.deviceName {
				return d.ID
			}
		}
		return ""
	}

	for _, d := range devices {
		if d.IsActive {
			return d.ID
		}
	}
	return devices[0].ID
}

// device returns the bound device id, or an error before readiness.
func (e *ConnectEngine) device() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deviceID == "" {
		return "", shared.ErrNoDevice
	}
	return e.deviceID, nil
}

// TogglePlay pauses when playing and resumes when paused, based on the last
// observed state.
func (e *ConnectEngine) TogglePlay(ctx context.Context) error {
	deviceID, err := e.device()
	if err != nil {
		return err
	}

	e.mu.Lock()
	paused := !e.pausedKnown || e.paused
	e.mu.Unlock()

	if paused {
		return e.api.Play(ctx, deviceID, "")
	}
	return e.api.Pause(ctx, deviceID)
}

// Next skips to the next track.
func (e *ConnectEngine) Next(ctx context.Context) error {
	deviceID, err := e.device()
	if err != nil {
		return err
	}
	return e.api.Next(ctx, deviceID)
}

// Previous skips to the previous track.
func (e *ConnectEngine) Previous(ctx context.Context) error {
	deviceID, err := e.device()
	if err != nil {
		return err
	}
	return e.api.Previous(ctx, deviceID)
}

// SetVolume applies a volume in [0, 1].
func (e *ConnectEngine) SetVolume(ctx context.Context, volume float64) error {
	deviceID, err := e.device()
	if err != nil {
		return err
	}
	return e.api.SetVolume(ctx, deviceID, volume)
}
