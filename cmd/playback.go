package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/solararadio/scmplayer/internal/player"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play starts or resumes playback. With --playlist the named playlist from
// the filtered catalog is played; with --random a random one. Without either
// playback resumes.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}

	contextURI := ""
	playlistID := cmd.String("playlist")
	if playlistID != "" || cmd.Bool("random") {
		playlists, err := r.spotify.Playlists(ctx)
		if err != nil {
			return r.describeAPIError(err)
		}
		matched := player.FilterPlaylists(playlists, r.config.Player.Prefix)

		switch {
		case playlistID != "":
			for _, p := range matched {
				if p.ID == playlistID || p.Name == playlistID {
					contextURI = p.URI
					break
				}
			}
			if contextURI == "" {
				return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
			}
		case len(matched) == 0:
			return fmt.Errorf("%w: catalog is empty", shared.ErrPlaylistNotFound)
		default:
			contextURI = matched[rand.IntN(len(matched))].URI
		}
	}

	if err := r.spotify.Play(ctx, deviceID, contextURI); err != nil {
		return r.describeAPIError(err)
	}

	if contextURI == "" {
		return r.writePlain("▶ Resumed playback on %s\n", deviceID)
	}
	return r.writePlain("▶ Playing %s on %s\n", contextURI, deviceID)
}

// Pause pauses playback.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := r.spotify.Pause(ctx, deviceID); err != nil {
		return r.describeAPIError(err)
	}
	return r.writePlain("⏸ Paused\n")
}

// NextTrack skips to the next track.
func (r *Runner) NextTrack(ctx context.Context, cmd *cli.Command) error {
	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := r.spotify.Next(ctx, deviceID); err != nil {
		return r.describeAPIError(err)
	}
	return r.writePlain("⏭ Skipped forward\n")
}

// PreviousTrack skips to the previous track.
func (r *Runner) PreviousTrack(ctx context.Context, cmd *cli.Command) error {
	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := r.spotify.Previous(ctx, deviceID); err != nil {
		return r.describeAPIError(err)
	}
	return r.writePlain("⏮ Skipped back\n")
}

// Volume sets the playback volume from a [0, 1] argument.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("level")
	if raw == "" {
		return fmt.Errorf("%w: volume level", shared.ErrMissingArgument)
	}
	level, err := strconv.ParseFloat(raw, 64)
	if err != nil || level < 0 || level > 1 {
		return fmt.Errorf("%w: volume must be a number in [0, 1]", shared.ErrInvalidArgument)
	}

	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := r.spotify.SetVolume(ctx, deviceID, level); err != nil {
		return r.describeAPIError(err)
	}
	return r.writePlain("🔊 Volume set\n")
}

// resolveDevice returns the explicit device id, the configured device by
// name, or the first active device.
func (r *Runner) resolveDevice(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	devices, err := r.spotify.Devices(ctx)
	if err != nil {
		return "", r.describeAPIError(err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("%w: no Connect devices available", shared.ErrNoDevice)
	}

	if name := r.config.Player.DeviceName; name != "" {
		for _, d := range devices {
			if d.Name == name {
				return d.ID, nil
			}
		}
		return "", fmt.Errorf("%w: device %q not found", shared.ErrNoDevice, name)
	}

	for _, d := range devices {
		if d.IsActive {
			return d.ID, nil
		}
	}
	return devices[0].ID, nil
}
