package models

import "time"

// Playlist represents a playlist drawn from the provider's catalog.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URI        string `json:"uri"`
	TrackCount int    `json:"track_count"`
}

// AuthSession is the authentication state for one user.
//
// RefreshToken is empty for sessions established through the token relay,
// which does not always forward refresh metadata; such sessions cannot be
// silently refreshed. A zero Expiry means the expiry is unknown and the
// token is treated as valid until the provider rejects it.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Refreshable reports whether the session carries a refresh token.
func (s AuthSession) Refreshable() bool {
	return s.RefreshToken != ""
}

// PlaybackSession is the state of one remote playback binding.
//
// DeviceID transitions from empty to set exactly once per engine connection.
// Transport operations issued while it is empty are no-ops.
type PlaybackSession struct {
	DeviceID        string
	CurrentPlaylist *Playlist
	IsPlaying       bool
	Volume          float64
}
