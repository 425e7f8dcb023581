package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/solararadio/scmplayer/internal/formatter"
	"github.com/solararadio/scmplayer/internal/player"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's playlists, filtered by the configured name
// prefix unless --all is set.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	useCSV := cmd.Bool("csv")
	useMarkdown := cmd.Bool("markdown")
	all := cmd.Bool("all")
	saveFile := cmd.String("output")

	r.logger.Info("listing playlists", "prefix", r.config.Player.Prefix, "all", all)

	playlists, err := r.spotify.Playlists(ctx)
	if err != nil {
		return r.describeAPIError(err)
	}

	if !all {
		playlists = player.FilterPlaylists(playlists, r.config.Player.Prefix)
	}

	switch {
	case useCSV:
		data, err := formatter.PlaylistsToCSV(playlists)
		if err != nil {
			return err
		}
		if saveFile != "" {
			return writeFile(saveFile, data)
		}
		return r.writePlain("%s", string(data))

	case useMarkdown:
		title := "Playlists"
		if !all && r.config.Player.Prefix != "" {
			title = fmt.Sprintf("Playlists matching %q", r.config.Player.Prefix)
		}
		data := formatter.PlaylistsToMarkdown(title, playlists)
		if saveFile != "" {
			return writeFile(saveFile, data)
		}
		return r.writePlain("%s", string(data))

	case useJSON:
		if saveFile != "" {
			data, err := formatter.PlaylistsToJSON(playlists)
			if err != nil {
				return err
			}
			return writeFile(saveFile, data)
		}
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   URI: %s\n", p.URI)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

// Devices lists the available Connect playback devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	devices, err := r.spotify.Devices(ctx)
	if err != nil {
		return r.describeAPIError(err)
	}

	if useJSON {
		return r.writeJSON(devices, pretty)
	}

	return r.writePlain("%s", string(formatter.DevicesToText(devices)))
}

// describeAPIError maps expiry errors to an actionable message.
func (r *Runner) describeAPIError(err error) error {
	if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
		return fmt.Errorf("%w: run 'scmplayer auth login' to authenticate", err)
	}
	if errors.Is(err, shared.ErrAPIRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
