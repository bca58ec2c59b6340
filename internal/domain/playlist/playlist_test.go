package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaylist_Ownership(t *testing.T) {
	tests := []struct {
		name       string
		playlist   Playlist
		userID     string
		isOfficial bool
		isOwned    bool
	}{
		{
			name:       "official playlist",
			playlist:   Playlist{OwnerID: "spotify"},
			userID:     "alice",
			isOfficial: true,
		},
		{
			name:     "owned by caller",
			playlist: Playlist{OwnerID: "alice"},
			userID:   "alice",
			isOwned:  true,
		},
		{
			name:     "someone else",
			playlist: Playlist{OwnerID: "bob"},
			userID:   "alice",
		},
		{
			name:     "unknown caller",
			playlist: Playlist{OwnerID: ""},
			userID:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isOfficial, tt.playlist.IsOfficial())
			assert.Equal(t, tt.isOwned, tt.playlist.IsOwnedBy(tt.userID))
		})
	}
}

func TestPlaylist_FriendlyName(t *testing.T) {
	tests := []struct {
		name     string
		playlist Playlist
		expected string
	}{
		{"display name", Playlist{Name: "lofi beats", OwnerID: "spotify", OwnerName: "Spotify"}, "Playlist: lofi beats by Spotify"},
		{"owner id fallback", Playlist{Name: "mix", OwnerID: "alice"}, "Playlist: mix by alice"},
		{"no owner", Playlist{Name: "mix"}, "Playlist: mix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.playlist.FriendlyName())
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Names([]Playlist{{Name: "a"}, {Name: "b"}}))
	assert.Empty(t, Names(nil))
}
