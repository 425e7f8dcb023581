// Package server provides HTTP routing, the OAuth callback, and the token
// relay endpoint for the player's local server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] serves the redirect target of the PKCE flow.
//
// The handler validates the state parameter (CSRF protection), hands the
// authorization code to the exchanger, and sends the result through a channel.
//
// It only processes one callback; authorization codes are single-use.
//
// # Token Relay Endpoint
//
// [RelayHandler] is the owning side of the cross-context token relay. A
// detached authorization process POSTs a token message to /relay; the HTTP
// Origin header is treated as the message origin and validated by the
// [relay.Listener] against the configured trusted origin before the token
// can reach session state.
//
// # Current Usage
//
// During `scmplayer auth login` a temporary server on the configured
// host:port serves /callback and shuts down once the exchange completes.
// The interactive player serves /relay for the lifetime of the session when
// a trusted origin is configured.
package server
