package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/player"
	"github.com/solararadio/scmplayer/internal/relay"
	"github.com/solararadio/scmplayer/internal/server"
	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/solararadio/scmplayer/internal/ui"
	"github.com/urfave/cli/v3"
)

// Player launches the interactive terminal player.
//
// Alongside the TUI it serves the token relay endpoint, so a detached
// `auth relay` process can hand a fresh token to the running player.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/scmplayer-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollInterval := time.Duration(r.config.Player.PollIntervalMS) * time.Millisecond
	engine := player.NewConnectEngine(player.ConnectEngineOpts{
		API:        r.spotify,
		DeviceName: r.config.Player.DeviceName,
		Interval:   pollInterval,
		Logger:     fileLogger,
	})

	controller := player.NewController(player.ControllerOpts{
		Engine:            engine,
		Catalog:           r.spotify,
		Starter:           r.spotify,
		Logger:            fileLogger,
		Prefix:            r.config.Player.Prefix,
		Selection:         r.config.Player.Selection,
		PreserveSelection: r.config.Player.PreserveSelection,
		Volume:            r.config.Player.Volume,
	})
	defer controller.Stop()

	listener := relay.NewListener(r.config.Relay.TrustedOrigin, fileLogger)
	defer listener.Close()

	// Receiving from a nil serverErrors channel blocks forever, so the
	// select below only ever sees relay failures when the relay is served.
	var serverErrors chan error
	if r.config.Relay.TrustedOrigin != "" {
		httpServer, errs := r.startRelayServer(listener, fileLogger)
		serverErrors = errs
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				fileLogger.Warn("error shutting down relay server", "error", err)
			}
		}()

		go r.consumeRelay(ctx, listener, controller)
	} else {
		fileLogger.Warn("no trusted origin configured, token relay disabled")
	}

	if _, err := r.lifecycle.GetValidToken(ctx); err == nil {
		if err := controller.Start(ctx); err != nil {
			return err
		}
	} else {
		fileLogger.Warn("no valid session, waiting for relayed token", "error", err)
	}

	model := ui.NewModel(ctx, controller)
	p := tea.NewProgram(model)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	case err := <-serverErrors:
		p.Quit()
		<-done
		return fmt.Errorf("relay server error: %w", err)
	}
}

// startRelayServer serves the relay endpoint on the configured address.
func (r *Runner) startRelayServer(listener *relay.Listener, logger *log.Logger) (*http.Server, chan error) {
	relayHandler := server.NewRelayHandler(listener, r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(relayHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("serving token relay at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	return httpServer, serverErrors
}

// consumeRelay applies accepted relay messages to the session store and
// (re)starts the controller.
func (r *Runner) consumeRelay(ctx context.Context, listener *relay.Listener, controller *player.Controller) {
	for msg := range listener.Messages() {
		sess := models.AuthSession{
			AccessToken:  msg.Token,
			RefreshToken: msg.RefreshToken,
		}
		if msg.ExpiresIn > 0 {
			sess.Expiry = time.Now().Add(time.Duration(msg.ExpiresIn) * time.Second)
		}

		if err := session.WriteSession(r.store, sess); err != nil {
			r.logger.Error("failed to store relayed session", "error", err)
			continue
		}
		r.logger.Info("session updated from relay", "refreshable", sess.Refreshable())

		if err := controller.Start(ctx); err != nil {
			r.logger.Error("failed to start playback session", "error", err)
		}
	}
}
