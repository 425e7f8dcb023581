package main

import (
	"context"
	"os"

	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	storePath := config.Store.Path
	if storePath == "" {
		storePath = session.DefaultStorePath()
	}

	store, err := session.OpenBolt(storePath)
	if err != nil {
		logger.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	runner := NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "scmplayer",
		Usage:    "Play SCM playlists on Spotify Connect devices",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
