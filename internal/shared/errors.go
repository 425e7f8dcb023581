package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and flow-integrity errors
	ErrAuthFailed       = fmt.Errorf("authorization failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrMissingVerifier  = fmt.Errorf("no code verifier for pending exchange")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Relay errors
	ErrUntrustedOrigin = fmt.Errorf("message from untrusted origin")
	ErrInvalidMessage  = fmt.Errorf("invalid relay message")
	ErrRelayClosed     = fmt.Errorf("relay listener closed")

	// API and playback errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrNoDevice           = fmt.Errorf("no playback device available")
	ErrEngineClosed       = fmt.Errorf("playback engine disconnected")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
