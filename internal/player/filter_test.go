package player

import (
	"testing"

	"github.com/solararadio/scmplayer/internal/models"
)

func TestMatchesPrefix(t *testing.T) {
	tc := []struct {
		name     string
		playlist string
		prefix   string
		want     bool
	}{
		{
			name:     "case-insensitive trimmed match",
			playlist: "  scm: roadtrip",
			prefix:   "SCM",
			want:     true,
		},
		{
			name:     "prefix match without delimiter",
			playlist: "Scmx",
			prefix:   "scm",
			want:     true,
		},
		{
			name:     "non-matching name",
			playlist: "other",
			prefix:   "SCM",
			want:     false,
		},
		{
			name:     "prefix in the middle does not match",
			playlist: "my SCM mix",
			prefix:   "SCM",
			want:     false,
		},
		{
			name:     "empty prefix matches everything",
			playlist: "anything",
			prefix:   "",
			want:     true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesPrefix(tt.playlist, tt.prefix); got != tt.want {
				t.Errorf("MatchesPrefix(%q, %q) = %v, want %v", tt.playlist, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestFilterPlaylists(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "p1", Name: "SCM One"},
		{ID: "p2", Name: "other"},
		{ID: "p3", Name: "  scm: roadtrip"},
		{ID: "p4", Name: "Scmx"},
	}

	got := FilterPlaylists(playlists, "SCM")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "p1" || got[1].ID != "p3" || got[2].ID != "p4" {
		t.Errorf("filter changed catalog order: %+v", got)
	}
}
