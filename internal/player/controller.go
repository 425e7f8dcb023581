package player

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/shared"
)

// State is the controller's lifecycle phase.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Bound
	Error
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Bound:
		return "bound"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Catalog lists the user's playlists, following pagination to exhaustion.
type Catalog interface {
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// Starter begins playback of a context URI on a device.
type Starter interface {
	Play(ctx context.Context, deviceID, contextURI string) error
}

// Controller drives a playback session: it connects the engine, binds to
// the reported device, loads the filtered catalog, starts playback of the
// selected playlist, and then accepts transport operations.
type Controller struct {
	engine  Engine
	catalog Catalog
	starter Starter
	logger  *log.Logger

	prefix    string
	selection string
	preserve  bool
	randFn    func(n int) int

	mu         sync.Mutex
	state      State
	lastErr    error
	stopping   bool
	generation int
	deviceID   string
	playlists  []models.Playlist
	session    models.PlaybackSession
	done       chan struct{}
}

// ControllerOpts contains dependencies for creating a Controller.
type ControllerOpts struct {
	Engine  Engine
	Catalog Catalog
	Starter Starter
	Logger  *log.Logger

	// Prefix filters the catalog by playlist name. Empty keeps everything.
	Prefix string
	// Selection is the initial pick policy, "first" or "random".
	Selection string
	// PreserveSelection keeps the current playlist across a catalog
	// refresh when it still exists.
	PreserveSelection bool
	// Volume is the starting volume in [0, 1].
	Volume float64
	// RandFn overrides the random source for selection.
	RandFn func(n int) int
}

// NewController creates a controller in the Uninitialized state.
func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RandFn == nil {
		opts.RandFn = rand.IntN
	}
	if opts.Selection == "" {
		opts.Selection = "first"
	}

	return &Controller{
		engine:    opts.Engine,
		catalog:   opts.Catalog,
		starter:   opts.Starter,
		logger:    opts.Logger,
		prefix:    opts.Prefix,
		selection: opts.Selection,
		preserve:  opts.PreserveSelection,
		randFn:    opts.RandFn,
		session:   models.PlaybackSession{Volume: clampVolume(opts.Volume)},
	}
}

// Start connects the engine and begins consuming its events. Idempotent: a
// call while the controller is Loading, Ready, or Bound does nothing. From
// Error it tears down the previous connection and restarts.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Loading, Ready, Bound:
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	prev := c.done
	c.mu.Unlock()

	// A catalog failure moves to Error while the engine keeps polling; the
	// prior event loop must be gone before a new one becomes the sole
	// consumer of engine events.
	c.engine.Disconnect()
	if prev != nil {
		<-prev
	}

	c.mu.Lock()
	switch c.state {
	case Loading, Ready, Bound:
		c.mu.Unlock()
		return nil
	}
	c.state = Loading
	c.lastErr = nil
	c.stopping = false
	c.deviceID = ""
	c.session.DeviceID = ""
	c.session.CurrentPlaylist = nil
	c.session.IsPlaying = false
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	if err := c.engine.Connect(ctx); err != nil {
		c.setError(fmt.Errorf("engine connect: %w", err))
		close(done)
		return err
	}

	go c.loop(ctx, c.engine.Events(), done)
	return nil
}

// Stop disconnects the engine and returns the controller to Uninitialized.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == Uninitialized {
		c.mu.Unlock()
		return
	}
	c.stopping = true
	done := c.done
	c.mu.Unlock()

	c.engine.Disconnect()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.state = Uninitialized
	c.deviceID = ""
	c.session.DeviceID = ""
	c.session.IsPlaying = false
	c.mu.Unlock()
}

// loop consumes engine events until the channel closes.
func (c *Controller) loop(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)

	for ev := range events {
		switch ev.Kind {
		case EventReady:
			c.onReady(ctx, ev.DeviceID)
		case EventStateChanged:
			c.mu.Lock()
			c.session.IsPlaying = !ev.Paused
			c.mu.Unlock()
		case EventError:
			c.setError(ev.Err)
			return
		}
	}

	c.mu.Lock()
	stopping := c.stopping
	state := c.state
	c.mu.Unlock()
	if !stopping && state != Error {
		c.setError(shared.ErrEngineClosed)
	}
}

// onReady binds the device, loads the catalog, and starts playback of the
// selected playlist.
func (c *Controller) onReady(ctx context.Context, deviceID string) {
	c.mu.Lock()
	c.deviceID = deviceID
	c.session.DeviceID = deviceID
	c.state = Ready
	gen := c.nextGenerationLocked()
	c.mu.Unlock()

	c.logger.Info("device ready", "device_id", deviceID)

	all, err := c.catalog.Playlists(ctx)
	if err != nil {
		c.setError(fmt.Errorf("catalog fetch: %w", err))
		return
	}
	matched := FilterPlaylists(all, c.prefix)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.playlists = matched
	selected := c.selectLocked(matched)
	c.session.CurrentPlaylist = selected
	c.mu.Unlock()

	if selected == nil {
		c.logger.Warn("no playlists match prefix", "prefix", c.prefix, "total", len(all))
		c.mu.Lock()
		c.state = Bound
		c.mu.Unlock()
		return
	}

	if err := c.starter.Play(ctx, deviceID, selected.URI); err != nil {
		c.setError(fmt.Errorf("start playback: %w", err))
		return
	}

	c.mu.Lock()
	c.state = Bound
	c.session.IsPlaying = true
	c.mu.Unlock()

	c.logger.Info("playback started", "playlist", selected.Name)
}

// selectLocked applies the selection policy. Callers hold the mutex.
func (c *Controller) selectLocked(playlists []models.Playlist) *models.Playlist {
	if len(playlists) == 0 {
		return nil
	}
	idx := 0
	if c.selection == "random" {
		idx = c.randFn(len(playlists))
	}
	p := playlists[idx]
	return &p
}

func (c *Controller) nextGenerationLocked() int {
	c.generation++
	return c.generation
}

func (c *Controller) setError(err error) {
	c.mu.Lock()
	c.state = Error
	c.lastErr = err
	c.session.IsPlaying = false
	c.mu.Unlock()
	c.logger.Error("playback session failed", "error", err)
}

// device returns the bound device id, or "" before readiness.
func (c *Controller) device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// TogglePlay flips between play and pause. A no-op before a device exists.
func (c *Controller) TogglePlay(ctx context.Context) error {
	if c.device() == "" {
		return nil
	}
	if err := c.engine.TogglePlay(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.session.IsPlaying = !c.session.IsPlaying
	c.mu.Unlock()
	return nil
}

// Next skips to the next track. A no-op before a device exists.
func (c *Controller) Next(ctx context.Context) error {
	if c.device() == "" {
		return nil
	}
	return c.engine.Next(ctx)
}

// Previous skips to the previous track. A no-op before a device exists.
func (c *Controller) Previous(ctx context.Context) error {
	if c.device() == "" {
		return nil
	}
	return c.engine.Previous(ctx)
}

// SetVolume clamps the volume to [0, 1] and applies it. The local session
// always records the new value; the engine call is skipped before a device
// exists.
func (c *Controller) SetVolume(ctx context.Context, volume float64) error {
	volume = clampVolume(volume)

	c.mu.Lock()
	c.session.Volume = volume
	c.mu.Unlock()

	if c.device() == "" {
		return nil
	}
	return c.engine.SetVolume(ctx, volume)
}

// SwitchPlaylist starts playback of another playlist from the loaded
// catalog, without re-fetching it. A no-op before a device exists.
func (c *Controller) SwitchPlaylist(ctx context.Context, id string) error {
	deviceID := c.device()
	if deviceID == "" {
		return nil
	}

	c.mu.Lock()
	var target *models.Playlist
	for _, p := range c.playlists {
		if p.ID == id {
			target = &p
			break
		}
	}
	c.mu.Unlock()

	if target == nil {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	if err := c.starter.Play(ctx, deviceID, target.URI); err != nil {
		return err
	}

	c.mu.Lock()
	c.session.CurrentPlaylist = target
	c.session.IsPlaying = true
	c.mu.Unlock()
	return nil
}

// PlayRandom switches to a randomly chosen playlist from the loaded
// catalog. A no-op before a device exists.
func (c *Controller) PlayRandom(ctx context.Context) error {
	c.mu.Lock()
	n := len(c.playlists)
	if n == 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: catalog is empty", shared.ErrPlaylistNotFound)
	}
	id := c.playlists[c.randFn(n)].ID
	c.mu.Unlock()

	return c.SwitchPlaylist(ctx, id)
}

// RefreshCatalog re-fetches and re-filters the catalog. A refresh overtaken
// by a newer one is discarded. The current selection is kept when it still
// exists and preservation is enabled; otherwise the selection policy picks
// again. Refreshing never restarts playback on its own.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	c.mu.Lock()
	gen := c.nextGenerationLocked()
	c.mu.Unlock()

	all, err := c.catalog.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("catalog fetch: %w", err)
	}
	matched := FilterPlaylists(all, c.prefix)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	c.playlists = matched

	if c.preserve && c.session.CurrentPlaylist != nil {
		for _, p := range matched {
			if p.ID == c.session.CurrentPlaylist.ID {
				c.session.CurrentPlaylist = &p
				return nil
			}
		}
	}
	c.session.CurrentPlaylist = c.selectLocked(matched)
	return nil
}

// CurrentState returns the controller's lifecycle phase.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the controller to Error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns a copy of the playback session.
func (c *Controller) Snapshot() models.PlaybackSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s.CurrentPlaylist != nil {
		p := *s.CurrentPlaylist
		s.CurrentPlaylist = &p
	}
	return s
}

// Playlists returns a copy of the filtered catalog.
func (c *Controller) Playlists() []models.Playlist {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Playlist, len(c.playlists))
	copy(out, c.playlists)
	return out
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
