// Package models defines the domain entities shared across the player.
//
// [AuthSession] carries the OAuth access token, optional refresh token, and
// absolute expiry produced by the code exchange and consumed by the token
// lifecycle. [Playlist] is the catalog entry the playback controller selects
// from. [PlaybackSession] is the controller's view of the bound Connect
// device and current playback state.
//
// The package has no behavior beyond small predicates so that every other
// package can depend on it without cycles.
package models
