// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"strings"
	"time"

	"github.com/osa030/muse/internal/domain/candidate"
)

// Track represents a Spotify track entity.
// Contains only information retrieved from Spotify API.
type Track struct {
	ID         string        // Spotify Track ID
	URI        string        // Spotify URI (spotify:track:ID)
	Name       string        // Track name
	Artists    []string      // Artist names
	Album      string        // Album name
	Duration   time.Duration // Track duration
	Popularity int           // Popularity score (0-100)
	Explicit   bool          // Explicit content flag
	Markets    []string      // Available markets
	IsPlayable *bool         // Playable in the specified market (nil if market not specified)
}

// IsAvailableInMarket checks if the track is available in the specified market.
func (t *Track) IsAvailableInMarket(market string) bool {
	// If IsPlayable is set, it takes precedence (Track Relinking support)
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}

	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}

// ArtistList returns the artist names joined for display.
func (t *Track) ArtistList() string {
	return strings.Join(t.Artists, ", ")
}

// FriendlyName returns the labelled display name used for ranking and notes.
func (t *Track) FriendlyName() string {
	name := fmt.Sprintf("%s: %s", candidate.TypeTrack.Label(), t.Name)
	if len(t.Artists) > 0 {
		name += " by " + t.ArtistList()
	}
	if t.Album != "" {
		name += fmt.Sprintf(" (Album: %s)", t.Album)
	}
	return name
}

// Candidate converts the track to a search candidate.
func (t *Track) Candidate() candidate.Candidate {
	c := candidate.New(candidate.TypeTrack, t.URI, t.FriendlyName(), t.Popularity)
	c.Markets = t.Markets
	c.IsPlayable = t.IsPlayable
	return c
}
