package main

import (
	"context"
	"fmt"
	"os"

	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// setupCommand initializes configuration and the session store
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a configuration file and initialize the session store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// Setup writes a template config file when none exists and opens the
// session store once to create it.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
		r.writePlain("✓ Using existing config at %s\n", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
	}

	storePath := config.Store.Path
	if storePath == "" {
		storePath = session.DefaultStorePath()
	}

	r.logger.Info("initializing session store", "path", storePath)

	store, err := session.OpenBolt(storePath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	r.writePlain("✓ Session store initialized at %s\n", storePath)
	r.writePlain("\nNext: set credentials.spotify.client_id in %s, then run 'scmplayer auth login'\n", configPath)
	return nil
}
