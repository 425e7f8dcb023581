package player

import (
	"strings"

	"github.com/solararadio/scmplayer/internal/models"
)

// MatchesPrefix reports whether a playlist name starts with the prefix,
// ignoring case and surrounding whitespace. The comparison is a plain
// prefix check, so a name like "SCMX Mix" matches prefix "SCM".
func MatchesPrefix(name, prefix string) bool {
	trimmed := strings.TrimSpace(name)
	return strings.HasPrefix(strings.ToUpper(trimmed), strings.ToUpper(prefix))
}

// FilterPlaylists returns the playlists whose names match the prefix,
// preserving catalog order. An empty prefix matches everything.
func FilterPlaylists(playlists []models.Playlist, prefix string) []models.Playlist {
	matched := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if MatchesPrefix(p.Name, prefix) {
			matched = append(matched, p)
		}
	}
	return matched
}
