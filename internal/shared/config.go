package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Player      PlayerConfig      `toml:"player"`
	Relay       RelayConfig       `toml:"relay"`
	Server      ServerConfig      `toml:"server"`
	Store       StoreConfig       `toml:"store"`
}

// CredentialsConfig contains provider credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application settings for the PKCE flow.
// There is no client secret: the player is a public OAuth client.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// PlayerConfig contains playback behavior settings.
type PlayerConfig struct {
	// Prefix restricts the catalog to playlists whose trimmed name starts
	// with this value, case-insensitively.
	Prefix string `toml:"prefix"`
	// Selection picks the initial playlist: "first" or "random".
	Selection string `toml:"selection"`
	// PreserveSelection keeps the current playlist selected across catalog
	// refreshes when it still exists.
	PreserveSelection bool `toml:"preserve_selection"`
	// Volume is the initial volume in [0, 1].
	Volume float64 `toml:"volume"`
	// DeviceName, when set, binds playback to the Connect device with this
	// name instead of the first active one.
	DeviceName string `toml:"device_name"`
	// PollIntervalMS is the Connect state polling interval.
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// RelayConfig contains the cross-context token relay settings.
type RelayConfig struct {
	// TrustedOrigin is the only origin the relay listener accepts token
	// messages from. Never a wildcard.
	TrustedOrigin string `toml:"trusted_origin"`
}

// ServerConfig contains settings for the local HTTP server hosting the OAuth
// callback and the relay endpoint.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig contains session store settings.
type StoreConfig struct {
	// Path to the bbolt session database. Empty means ~/.scmplayer/session.db.
	Path string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes the configuration to a TOML file at the specified path.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors that should fail fast at
// startup: a missing client id, a malformed redirect URI or trusted origin,
// an unknown selection policy, or a volume outside [0, 1].
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: spotify client_id is required", ErrInvalidConfig)
	}
	if err := validateAbsoluteURL(c.Credentials.Spotify.RedirectURI); err != nil {
		return fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}
	if c.Relay.TrustedOrigin != "" {
		if c.Relay.TrustedOrigin == "*" {
			return fmt.Errorf("%w: trusted_origin must not be a wildcard", ErrInvalidConfig)
		}
		if err := validateAbsoluteURL(c.Relay.TrustedOrigin); err != nil {
			return fmt.Errorf("%w: trusted_origin: %v", ErrInvalidConfig, err)
		}
	}
	switch c.Player.Selection {
	case "", "first", "random":
	default:
		return fmt.Errorf("%w: selection must be \"first\" or \"random\", got %q", ErrInvalidConfig, c.Player.Selection)
	}
	if c.Player.Volume < 0 || c.Player.Volume > 1 {
		return fmt.Errorf("%w: volume must be in [0, 1], got %v", ErrInvalidConfig, c.Player.Volume)
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("value is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
