// Package bgm provides the random music strategies behind play_random_music.
package bgm

import (
	"context"

	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/domain/track"
)

// Provider is the interface for random music track providers.
// Different implementations can provide tracks through various strategies
// (e.g., playlist-based, similarity-based, library-based).
type Provider interface {
	// GetCandidates retrieves track candidates.
	// count: the number of candidates to retrieve
	// seedTracks: recently played tracks that can be used as hints
	// excludeURIs: tracks to avoid (recent play history)
	GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeURIs map[string]bool) ([]track.Track, error)

	// Name returns the provider type name (used in config).
	Name() string
}

// SpotifyClient defines the Spotify operations needed by providers.
type SpotifyClient interface {
	PlaylistTracksRandom(ctx context.Context, playlistURL string, count int) ([]track.Track, error)
	SavedTracksRandom(ctx context.Context, count int) ([]track.Track, error)
	SearchTracks(ctx context.Context, q search.Query) ([]track.Track, error)
}

// filterExcluded drops tracks whose URI is excluded or already seen.
func filterExcluded(tracks []track.Track, excludeURIs map[string]bool) []track.Track {
	seen := make(map[string]bool, len(tracks))
	result := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.URI == "" || excludeURIs[t.URI] || seen[t.URI] {
			continue
		}
		seen[t.URI] = true
		result = append(result, t)
	}
	return result
}
