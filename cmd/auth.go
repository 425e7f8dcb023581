package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/solararadio/scmplayer/internal/auth"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/relay"
	"github.com/solararadio/scmplayer/internal/server"
	"github.com/solararadio/scmplayer/internal/session"
	"github.com/solararadio/scmplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the PKCE authorization flow.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens stored in the session store.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.doAuthFlow(ctx, "authorization")
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if sess.Refreshable() {
		r.writePlain("✓ Session expires %s and will refresh automatically\n\n", sess.Expiry.Format(time.RFC1123))
	} else {
		r.writePlain("⚠ No refresh token received; you will need to log in again on expiry\n\n")
	}
	r.writePlain("You can now use: scmplayer player\n")

	return nil
}

// AuthStatus reports the stored session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess, err := session.ReadSession(r.store)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if sess.AccessToken == "" {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run: scmplayer auth login\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	if sess.Expiry.IsZero() {
		r.writePlain("Expiry: unknown (valid until rejected)\n")
	} else {
		r.writePlain("Expiry: %s\n", sess.Expiry.Format(time.RFC1123))
	}
	if sess.Refreshable() {
		r.writePlain("Refresh: ✓ refresh token stored\n")
	} else {
		r.writePlain("Refresh: ✗ no refresh token\n")
	}

	return nil
}

// AuthRefresh forces a token refresh.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.lifecycle.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	r.writePlain("✓ Token refreshed, expires %s\n", sess.Expiry.Format(time.RFC1123))
	return nil
}

// AuthRelay authorizes in this process and relays the resulting token to a
// running player over its relay endpoint.
func (r *Runner) AuthRelay(ctx context.Context, cmd *cli.Command) error {
	endpoint := cmd.String("endpoint")
	if endpoint == "" {
		endpoint = fmt.Sprintf("http://%s:%d/relay", r.config.Server.Host, r.config.Server.Port)
	}

	sess, err := r.doAuthFlow(ctx, "relay authorization")
	if err != nil {
		return err
	}

	msg := relay.Message{Token: sess.AccessToken}
	if cmd.Bool("forward-refresh") && sess.Refreshable() {
		msg.RefreshToken = sess.RefreshToken
		if !sess.Expiry.IsZero() {
			msg.ExpiresIn = int64(time.Until(sess.Expiry).Seconds())
		}
	}

	if err := relay.Send(ctx, r.httpClient, endpoint, r.config.Relay.TrustedOrigin, msg); err != nil {
		return fmt.Errorf("failed to relay token: %w", err)
	}

	r.writePlain("✓ Token relayed to %s\n", endpoint)
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := session.ClearSession(r.store); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// doAuthFlow executes the PKCE authorization flow with a local HTTP server.
func (r *Runner) doAuthFlow(ctx context.Context, prefix string) (models.AuthSession, error) {
	var none models.AuthSession

	if err := r.config.Validate(); err != nil {
		return none, err
	}

	authCfg, err := auth.NewConfig(r.config.Credentials.Spotify)
	if err != nil {
		return none, err
	}

	state := shared.GenerateID()
	initiator := auth.NewInitiator(authCfg, r.store, r.logger)
	authURL, err := initiator.Begin(state)
	if err != nil {
		return none, err
	}

	exchanger := auth.NewExchanger(authCfg, r.store, r.logger)
	callbackHandler := server.NewCallbackHandler(exchanger.Exchange, state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(callbackHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return none, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return none, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return none, fmt.Errorf("authorization failed: %w", result.Error())
	}

	return result.Session, nil
}
