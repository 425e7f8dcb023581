package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/player"
)

// volumeStep is the increment applied by the volume keys.
const volumeStep = 0.05

// defaultTick is the session polling cadence for the view.
const defaultTick = 500 * time.Millisecond

// Controller is the playback session surface the TUI drives.
type Controller interface {
	CurrentState() player.State
	Err() error
	Snapshot() models.PlaybackSession
	Playlists() []models.Playlist
	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	SwitchPlaylist(ctx context.Context, id string) error
	PlayRandom(ctx context.Context) error
	RefreshCatalog(ctx context.Context) error
}

type tickMsg time.Time

type actionErrMsg struct{ err error }

type catalogMsg struct {
	playlists []models.Playlist
	err       error
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	controller Controller
	tick       time.Duration

	width        int
	height       int
	playlistList list.Model
	listReady    bool
	session      models.PlaybackSession
	state        player.State
	actionErr    error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, controller Controller) *Model {
	return &Model{
		ctx:        ctx,
		controller: controller,
		tick:       defaultTick,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the session polling loop.
func (m *Model) Init() tea.Cmd {
	return m.scheduleTick()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.playlistList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tickMsg:
		m.session = m.controller.Snapshot()
		m.state = m.controller.CurrentState()
		if !m.listReady && m.state == player.Bound {
			m.setPlaylists(m.controller.Playlists())
		}
		return m, m.scheduleTick()

	case catalogMsg:
		if msg.err != nil {
			m.actionErr = msg.err
			return m, nil
		}
		m.setPlaylists(msg.playlists)
		return m, nil

	case actionErrMsg:
		m.actionErr = msg.err
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the player screen.
func (m *Model) View() string {
	if m.state == player.Error {
		return styles.err.Render(fmt.Sprintf("Playback failed: %v\n\nPress q to quit", m.controller.Err()))
	}

	title := styles.title.Render("SCM Player")
	status := m.renderStatus()

	var catalog string
	if m.listReady {
		catalog = m.playlistList.View()
	} else {
		catalog = styles.help.Render(m.waitingLine())
	}

	var errLine string
	if m.actionErr != nil {
		errLine = "\n" + styles.warn.Render(fmt.Sprintf("last action failed: %v", m.actionErr))
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s%s\n\n%s\n\n%s", title, status, errLine, catalog, helpView)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		return m, m.action(m.controller.TogglePlay)
	case "n":
		return m, m.action(m.controller.Next)
	case "p":
		return m, m.action(m.controller.Previous)
	case "+", "=":
		return m, m.setVolume(m.session.Volume + volumeStep)
	case "-":
		return m, m.setVolume(m.session.Volume - volumeStep)
	case "r":
		return m, m.action(m.controller.PlayRandom)
	case "R":
		return m, m.refreshCatalog()
	case "enter":
		if m.listReady {
			if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				id := item.playlist.ID
				return m, m.action(func(ctx context.Context) error {
					return m.controller.SwitchPlaylist(ctx, id)
				})
			}
		}
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setPlaylists(playlists []models.Playlist) {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.playlistList.Title = "Playlists"
	m.playlistList.SetShowHelp(false)
	m.playlistList.SetSize(m.width-4, m.height-10)
	m.listReady = true
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// action wraps a transport call as a command; errors surface in the view
// without quitting.
func (m *Model) action(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(m.ctx); err != nil {
			return actionErrMsg{err: err}
		}
		return actionErrMsg{}
	}
}

func (m *Model) setVolume(v float64) tea.Cmd {
	return m.action(func(ctx context.Context) error {
		return m.controller.SetVolume(ctx, v)
	})
}

func (m *Model) refreshCatalog() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.RefreshCatalog(m.ctx); err != nil {
			return catalogMsg{err: err}
		}
		return catalogMsg{playlists: m.controller.Playlists()}
	}
}

func (m *Model) renderStatus() string {
	playState := "paused"
	style := styles.warn
	if m.session.IsPlaying {
		playState = "playing"
		style = styles.ok
	}

	current := "nothing selected"
	if m.session.CurrentPlaylist != nil {
		current = m.session.CurrentPlaylist.Name
	}

	device := m.session.DeviceID
	if device == "" {
		device = "no device"
	}

	return fmt.Sprintf("%s  %s\nDevice: %s  Volume: %d%%",
		style.Render(playState), current, device, int(m.session.Volume*100+0.5))
}

func (m *Model) waitingLine() string {
	switch m.state {
	case player.Loading:
		return "Connecting to Spotify..."
	case player.Ready:
		return "Loading playlists..."
	default:
		return "Waiting for a playback device..."
	}
}
