// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/services"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// StaticTokenSource is a test double for [services.TokenSource] returning a
// fixed token or error.
type StaticTokenSource struct {
	Token string
	Err   error
}

func (s *StaticTokenSource) GetValidToken(ctx context.Context) (string, error) {
	return s.Token, s.Err
}

// MockCatalog is a test double for the playlist catalog.
type MockCatalog struct {
	mu    sync.Mutex
	Items []models.Playlist
	Err   error
	Calls int
}

func (m *MockCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Playlist, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

// PlayCall records one playback-start request.
type PlayCall struct {
	DeviceID   string
	ContextURI string
}

// MockStarter is a test double for the playback-start API.
type MockStarter struct {
	mu    sync.Mutex
	Err   error
	Plays []PlayCall
}

func (m *MockStarter) Play(ctx context.Context, deviceID, contextURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Plays = append(m.Plays, PlayCall{DeviceID: deviceID, ContextURI: contextURI})
	return nil
}

// Calls returns a copy of the recorded playback-start requests.
func (m *MockStarter) Calls() []PlayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PlayCall, len(m.Plays))
	copy(out, m.Plays)
	return out
}

// MockTransport is a test double for [services.Transport] recording each
// method invocation by name.
type MockTransport struct {
	mu          sync.Mutex
	DevicesList []services.Device
	CurState    *services.PlayerState
	Err         error
	Methods     []string
}

func (m *MockTransport) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Methods = append(m.Methods, name)
	return m.Err
}

// SetDevices replaces the device list returned by Devices.
func (m *MockTransport) SetDevices(devices []services.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DevicesList = devices
}

// SetState replaces the state returned by State.
func (m *MockTransport) SetState(state *services.PlayerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CurState = state
}

// SetErr makes every method fail with err.
func (m *MockTransport) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MockTransport) Devices(ctx context.Context) ([]services.Device, error) {
	err := m.record("devices")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DevicesList, err
}

func (m *MockTransport) State(ctx context.Context) (*services.PlayerState, error) {
	err := m.record("state")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CurState, err
}

func (m *MockTransport) Play(ctx context.Context, deviceID, contextURI string) error {
	return m.record("play")
}

func (m *MockTransport) Pause(ctx context.Context, deviceID string) error {
	return m.record("pause")
}

func (m *MockTransport) Next(ctx context.Context, deviceID string) error {
	return m.record("next")
}

func (m *MockTransport) Previous(ctx context.Context, deviceID string) error {
	return m.record("previous")
}

func (m *MockTransport) SetVolume(ctx context.Context, deviceID string, volume float64) error {
	return m.record("setvolume")
}

// Recorded returns a copy of the invoked method names in order.
func (m *MockTransport) Recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Methods))
	copy(out, m.Methods)
	return out
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FailingStore is a session store whose writes always fail.
type FailingStore struct{}

func (f *FailingStore) Get(key string) (string, error) { return "", nil }

func (f *FailingStore) Set(key, value string) error {
	return errors.New("store write failed")
}

func (f *FailingStore) Clear(key string) error {
	return errors.New("store clear failed")
}
