package search

import (
	"math"
	"time"

	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/track"
)

const (
	officialPlaylistPopularity = 1000
	ownedPlaylistBonus         = 50
	genreLookup                = "genre"

	// Album recency halves every 12 months.
	recencyMax      = 100.0
	recencyHalfLife = 12.0
	daysPerMonth    = 365.25 / 12
)

func extractTracks(hits []track.Track) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for i := range hits {
		result = append(result, hits[i].Candidate())
	}
	return result
}

func extractAlbums(hits []catalog.Album, now time.Time) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for _, a := range hits {
		c := candidate.New(candidate.TypeAlbum, a.URI, a.FriendlyName(), RecencyBoost(a.ReleaseDate, now))
		c.Markets = a.Markets
		result = append(result, c)
	}
	return result
}

func extractArtists(hits []catalog.Artist) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for _, a := range hits {
		result = append(result, candidate.New(candidate.TypeArtist, a.URI, a.FriendlyName(), a.Popularity))
	}
	return result
}

func extractPlaylists(hits []playlist.Playlist, userID, originalType string) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for i := range hits {
		p := &hits[i]
		c := candidate.New(candidate.TypePlaylist, p.URI, p.FriendlyName(), PlaylistPopularity(p, userID, originalType))
		c.IsOfficial = p.IsOfficial()
		result = append(result, c)
	}
	return result
}

func extractShows(hits []catalog.Show) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for _, s := range hits {
		c := candidate.New(candidate.TypeShow, s.URI, s.FriendlyName(), 0)
		c.Markets = s.Markets
		result = append(result, c)
	}
	return result
}

func extractEpisodes(hits []catalog.Episode) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(hits))
	for _, e := range hits {
		result = append(result, candidate.New(candidate.TypeEpisode, e.URI, e.FriendlyName(), 0))
	}
	return result
}

// RecencyBoost returns 100 * 0.5^(months/12) for the release date, rounded.
// Unparseable dates score 0; future dates score the maximum.
func RecencyBoost(releaseDate string, now time.Time) int {
	released, ok := parseReleaseDate(releaseDate)
	if !ok {
		return 0
	}
	months := now.Sub(released).Hours() / 24 / daysPerMonth
	if months < 0 {
		months = 0
	}
	return int(math.Round(recencyMax * math.Pow(0.5, months/recencyHalfLife)))
}

// PlaylistPopularity synthesizes a popularity for a playlist hit.
// Official playlists are forced to the top; the caller's own playlists get a
// bonus, turned into a penalty for genre lookups.
func PlaylistPopularity(p *playlist.Playlist, userID, originalType string) int {
	if p.IsOfficial() {
		return officialPlaylistPopularity
	}
	if p.IsOwnedBy(userID) {
		if originalType == genreLookup {
			return -ownedPlaylistBonus
		}
		return ownedPlaylistBonus
	}
	return 0
}

func parseReleaseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
