// package services implements the Spotify Web API surface the player depends
// on: the paginated playlist catalog, Connect device discovery, and the
// transport (playback-start, pause, skip, volume) endpoints.
package services

import (
	"context"

	"github.com/solararadio/scmplayer/internal/models"
)

// TokenSource yields a currently valid access token, refreshing it first when
// it is about to expire. Satisfied by [session.Lifecycle].
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
}

// Catalog retrieves the user's playlist collection.
type Catalog interface {
	// Playlists returns every playlist in the user's catalog, following the
	// provider's continuation cursor until exhausted.
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// Transport issues playback commands scoped to a Connect device.
type Transport interface {
	Devices(ctx context.Context) ([]Device, error)
	State(ctx context.Context) (*PlayerState, error)
	// Play starts playback of the given context URI on the device. An empty
	// contextURI resumes whatever was playing.
	Play(ctx context.Context, deviceID, contextURI string) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	// SetVolume applies a volume in [0, 1] to the device.
	SetVolume(ctx context.Context, deviceID string, volume float64) error
}

// Device represents a Spotify Connect playback endpoint.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"` // Computer, Smartphone, Speaker, etc.
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// PlayerState is the subset of the provider's player state the engine needs.
type PlayerState struct {
	Device    Device `json:"device"`
	IsPlaying bool   `json:"is_playing"`
}
