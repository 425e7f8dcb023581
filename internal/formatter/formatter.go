// package formatter renders playlist and device listings in various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/solararadio/scmplayer/internal/models"
	"github.com/solararadio/scmplayer/internal/services"
	"github.com/solararadio/scmplayer/internal/shared"
)

// PlaylistsToCSV converts playlists to CSV format with columns: ID, Name, URI, Tracks
func PlaylistsToCSV(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "URI", "Tracks"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range playlists {
		record := []string{
			p.ID,
			p.Name,
			p.URI,
			strconv.Itoa(p.TrackCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToMarkdown converts playlists to a Markdown listing
func PlaylistsToMarkdown(title string, playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n\n", len(playlists)))

	for i, p := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s (%d tracks) `%s`\n", i+1, p.Name, p.TrackCount, p.URI))
	}

	return buf.Bytes()
}

// PlaylistsToText converts playlists to plain text, one per line
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlists: %d\n\n", len(playlists)))
	for i, p := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s (%d tracks)\n", i+1, p.Name, p.TrackCount))
	}

	return buf.Bytes()
}

// PlaylistsToJSON generates a JSON representation of the playlists
func PlaylistsToJSON(playlists []models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlists, true)
}

// DevicesToText converts Connect devices to plain text, marking the active one
func DevicesToText(devices []services.Device) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Devices: %d\n\n", len(devices)))
	for i, d := range devices {
		marker := " "
		if d.IsActive {
			marker = "*"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s (%s, volume %d%%)\n", i+1, marker, d.Name, d.Type, d.VolumePercent))
	}

	return buf.Bytes()
}

// DevicesToJSON generates a JSON representation of the devices
func DevicesToJSON(devices []services.Device) ([]byte, error) {
	return shared.MarshalJSON(devices, true)
}
