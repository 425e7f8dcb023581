// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles the Spotify authorization lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify using the PKCE flow",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session state",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Force an access token refresh",
				Action: r.AuthRefresh,
			},
			{
				Name:  "relay",
				Usage: "Authorize and relay the token to a running player",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Relay endpoint URL of the running player",
					},
					&cli.BoolFlag{
						Name:  "forward-refresh",
						Usage: "Include the refresh token and expiry in the relayed message",
					},
				},
				Action: r.AuthRelay,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List playlists matching the configured prefix",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include playlists that do not match the prefix",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Output Markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to a file instead of stdout",
			},
		},
		Action: r.Playlists,
	}
}

// devicesCommand lists Connect playback devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List available Connect playback devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Devices,
	}
}

// playbackCommand groups one-shot transport operations
func playbackCommand(r *Runner) *cli.Command {
	deviceFlag := &cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "Target device ID (defaults to the configured or active device)",
	}

	return &cli.Command{
		Name:  "playback",
		Usage: "Control playback on a Connect device",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Start or resume playback",
				Flags: []cli.Flag{
					deviceFlag,
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Playlist ID or name to play",
					},
					&cli.BoolFlag{
						Name:  "random",
						Usage: "Play a random playlist matching the prefix",
					},
				},
				Action: r.Play,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.Pause,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.NextTrack,
			},
			{
				Name:   "previous",
				Usage:  "Skip to the previous track",
				Flags:  []cli.Flag{deviceFlag},
				Action: r.PreviousTrack,
			},
			{
				Name:  "volume",
				Usage: "Set the playback volume (0 to 1)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "level"},
				},
				Flags:  []cli.Flag{deviceFlag},
				Action: r.Volume,
			},
		},
	}
}

// playerCommand launches the interactive TUI
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "player",
		Usage:  "Launch the interactive terminal player",
		Action: r.Player,
	}
}
