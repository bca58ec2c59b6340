// Package candidate provides the Candidate domain entity produced by catalog search.
package candidate

import "strings"

// Type represents a catalog entity type.
type Type string

const (
	TypeTrack    Type = "track"
	TypeAlbum    Type = "album"
	TypeArtist   Type = "artist"
	TypePlaylist Type = "playlist"
	TypeShow     Type = "show"
	TypeEpisode  Type = "episode"
)

// Types returns all searchable types in search order.
func Types() []Type {
	return []Type{TypeTrack, TypeAlbum, TypeArtist, TypePlaylist, TypeShow, TypeEpisode}
}

// ParseType parses a type name. Matching is case-insensitive.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Label returns the label used as friendly-name prefix.
func (t Type) Label() string {
	switch t {
	case TypeTrack:
		return "Track"
	case TypeAlbum:
		return "Album"
	case TypeArtist:
		return "Artist"
	case TypePlaylist:
		return "Playlist"
	case TypeShow:
		return "Show"
	case TypeEpisode:
		return "Episode"
	default:
		return ""
	}
}

// Priority returns the static tie-break rank of the type.
// Tracks beat albums, playlists and shows, which beat artists.
func (t Type) Priority() int {
	switch t {
	case TypeTrack:
		return 3
	case TypeAlbum, TypePlaylist, TypeShow, TypeEpisode:
		return 2
	case TypeArtist:
		return 1
	default:
		return 0
	}
}

// IsContext reports whether the type is played as a playback context
// rather than as a list of items.
func (t Type) IsContext() bool {
	switch t {
	case TypeAlbum, TypeArtist, TypePlaylist, TypeShow:
		return true
	default:
		return false
	}
}

// Candidate represents a catalog search result considered for playback.
type Candidate struct {
	URI          string   // Service URI, never empty
	FriendlyName string   // Human readable name with type label
	Type         Type     // Entity type
	Popularity   int      // Service popularity or synthesized score
	Priority     int      // Static per-type rank
	IsOfficial   bool     // Playlist owned by the service itself
	Markets      []string // Available markets (empty if not reported)
	IsPlayable   *bool    // Playable in the requested market (nil if not reported)
}

// New creates a candidate with the priority of its type.
func New(t Type, uri, friendlyName string, popularity int) Candidate {
	return Candidate{
		URI:          uri,
		FriendlyName: friendlyName,
		Type:         t,
		Popularity:   popularity,
		Priority:     t.Priority(),
	}
}

// Valid reports whether the candidate can be played.
func (c Candidate) Valid() bool {
	return c.URI != ""
}

// IsAvailableInMarket checks if the candidate is available in the specified market.
// An empty market means the caller's market is unknown and nothing is filtered.
func (c Candidate) IsAvailableInMarket(market string) bool {
	if market == "" {
		return true
	}

	// IsPlayable takes precedence (track relinking)
	if c.IsPlayable != nil {
		return *c.IsPlayable
	}

	if len(c.Markets) == 0 {
		return true
	}
	for _, m := range c.Markets {
		if strings.EqualFold(m, market) {
			return true
		}
	}
	return false
}

var labelPrefixes = func() []string {
	prefixes := make([]string, 0, len(Types()))
	for _, t := range Types() {
		prefixes = append(prefixes, t.Label()+": ")
	}
	return prefixes
}()

// StripLabel removes the type label and any trailing " by ..." or " from ..."
// clause from a friendly name.
func StripLabel(name string) string {
	for _, p := range labelPrefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}

	cut := len(name)
	for _, sep := range []string{" by ", " from "} {
		if i := strings.Index(name, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(name[:cut])
}
