// Package playlist provides the Playlist domain entity.
package playlist

import (
	"fmt"

	"github.com/osa030/muse/internal/domain/candidate"
)

// OfficialOwnerID is the owner id of playlists curated by the service itself.
const OfficialOwnerID = "spotify"

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID         string // Spotify Playlist ID
	URI        string // Spotify URI
	Name       string // Playlist name
	OwnerID    string // Owner user id
	OwnerName  string // Owner display name
	TrackCount int    // Number of items
}

// IsOfficial reports whether the playlist is curated by the service.
func (p *Playlist) IsOfficial() bool {
	return p.OwnerID == OfficialOwnerID
}

// IsOwnedBy reports whether userID owns the playlist.
func (p *Playlist) IsOwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// FriendlyName returns the labelled display name used for ranking and notes.
func (p *Playlist) FriendlyName() string {
	owner := p.OwnerName
	if owner == "" {
		owner = p.OwnerID
	}
	if owner == "" {
		return fmt.Sprintf("%s: %s", candidate.TypePlaylist.Label(), p.Name)
	}
	return fmt.Sprintf("%s: %s by %s", candidate.TypePlaylist.Label(), p.Name, owner)
}

// Names returns the names of the given playlists in order.
func Names(playlists []Playlist) []string {
	names := make([]string, len(playlists))
	for i, p := range playlists {
		names[i] = p.Name
	}
	return names
}
