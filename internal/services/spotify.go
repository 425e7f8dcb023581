// Spotify Web API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// catalogPageLimit is the page size requested from /me/playlists.
const catalogPageLimit = 50

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	URI    string               `json:"uri"`
	Tracks simplePlaylistTracks `json:"tracks"`
	Images []SpotifyImage       `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyClient implements [Catalog] and [Transport] against the Spotify Web
// API. Every request obtains its token from the TokenSource first, so an
// imminent expiry is refreshed before the call goes out.
type SpotifyClient struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// SpotifyClientOpts contains dependencies for creating a SpotifyClient.
type SpotifyClientOpts struct {
	BaseURL    string // defaults to the public API
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *log.Logger
	// RateLimit caps requests per second; zero means 10.
	RateLimit float64
}

// NewSpotifyClient creates a client over the given token source.
func NewSpotifyClient(opts SpotifyClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}

	return &SpotifyClient{
		baseURL: opts.BaseURL,
		tokens:  opts.Tokens,
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:  opts.Logger,
	}
}

// doRequest performs an authenticated request. The endpoint may be a path
// relative to the base URL or an absolute URL (pagination cursors are
// absolute). A 204 leaves result untouched.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = c.baseURL + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode request body: %w", marshalErr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, bytes.TrimSpace(detail))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// PlaylistPage retrieves one page of the user's playlists.
func (c *SpotifyClient) PlaylistPage(ctx context.Context, pageURL string) (*SpotifyPaginatedPlaylists, error) {
	if pageURL == "" {
		pageURL = fmt.Sprintf("/me/playlists?limit=%d", catalogPageLimit)
	}

	var page SpotifyPaginatedPlaylists
	if err := c.doRequest(ctx, http.MethodGet, pageURL, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Playlists retrieves the user's full playlist catalog, following the `next`
// cursor sequentially until it is null. Each page's cursor gates the next
// request; pages are never fetched concurrently.
func (c *SpotifyClient) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	next := ""

	for {
		page, err := c.PlaylistPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, models.Playlist{
				ID:         sp.ID,
				Name:       sp.Name,
				URI:        sp.URI,
				TrackCount: sp.Tracks.Total,
			})
		}

		if page.Next == nil || *page.Next == "" {
			break
		}
		next = *page.Next
	}

	return all, nil
}

// Devices retrieves the user's available Connect devices.
func (c *SpotifyClient) Devices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []Device `json:"devices"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// State retrieves the current player state. Returns nil when no playback
// session is active (the provider answers 204).
func (c *SpotifyClient) State(ctx context.Context) (*PlayerState, error) {
	var state PlayerState
	if err := c.doRequest(ctx, http.MethodGet, "/me/player", nil, &state); err != nil {
		return nil, err
	}
	if state.Device.ID == "" {
		return nil, nil
	}
	return &state, nil
}

// Play issues the playback-start command for a context URI on the device.
func (c *SpotifyClient) Play(ctx context.Context, deviceID, contextURI string) error {
	endpoint := "/me/player/play" + deviceQuery(deviceID)

	var body any
	if contextURI != "" {
		body = map[string]string{"context_uri": contextURI}
	}

	return c.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// Pause pauses playback on the device.
func (c *SpotifyClient) Pause(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPut, "/me/player/pause"+deviceQuery(deviceID), nil, nil)
}

// Next skips to the next track on the device.
func (c *SpotifyClient) Next(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, "/me/player/next"+deviceQuery(deviceID), nil, nil)
}

// Previous skips to the previous track on the device.
func (c *SpotifyClient) Previous(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, "/me/player/previous"+deviceQuery(deviceID), nil, nil)
}

// SetVolume applies a volume in [0, 1] to the device. The API takes whole
// percent, so the value is clamped and rounded.
func (c *SpotifyClient) SetVolume(ctx context.Context, deviceID string, volume float64) error {
	volume = math.Min(1, math.Max(0, volume))
	percent := int(math.Round(volume * 100))

	query := url.Values{"volume_percent": {strconv.Itoa(percent)}}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}

	return c.doRequest(ctx, http.MethodPut, "/me/player/volume?"+query.Encode(), nil, nil)
}

func deviceQuery(deviceID string) string {
	if deviceID == "" {
		return ""
	}
	return "?" + url.Values{"device_id": {deviceID}}.Encode()
}
