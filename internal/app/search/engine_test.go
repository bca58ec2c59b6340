package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/track"
)

type fakeCatalog struct {
	mu       sync.Mutex
	queries  []Query
	tracks   []track.Track
	albums   []catalog.Album
	artists  []catalog.Artist
	lists    []playlist.Playlist
	shows    []catalog.Show
	episodes []catalog.Episode
	failing  map[candidate.Type]bool
}

func (f *fakeCatalog) record(t candidate.Type, q Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.failing[t] {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeCatalog) SearchTracks(_ context.Context, q Query) ([]track.Track, error) {
	return f.tracks, f.record(candidate.TypeTrack, q)
}

func (f *fakeCatalog) SearchAlbums(_ context.Context, q Query) ([]catalog.Album, error) {
	return f.albums, f.record(candidate.TypeAlbum, q)
}

func (f *fakeCatalog) SearchArtists(_ context.Context, q Query) ([]catalog.Artist, error) {
	return f.artists, f.record(candidate.TypeArtist, q)
}

func (f *fakeCatalog) SearchPlaylists(_ context.Context, q Query) ([]playlist.Playlist, error) {
	return f.lists, f.record(candidate.TypePlaylist, q)
}

func (f *fakeCatalog) SearchShows(_ context.Context, q Query) ([]catalog.Show, error) {
	return f.shows, f.record(candidate.TypeShow, q)
}

func (f *fakeCatalog) SearchEpisodes(_ context.Context, q Query) ([]catalog.Episode, error) {
	return f.episodes, f.record(candidate.TypeEpisode, q)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks: []track.Track{
			{URI: "spotify:track:jp", Name: "Song", Artists: []string{"A"}, Popularity: 70, Markets: []string{"JP"}},
			{URI: "spotify:track:us", Name: "Song", Artists: []string{"B"}, Popularity: 90, Markets: []string{"US"}},
		},
		albums: []catalog.Album{
			{URI: "spotify:album:new", Name: "New", ReleaseDate: "2024-01-01", Markets: []string{"JP"}},
			{URI: "spotify:album:us", Name: "Elsewhere", ReleaseDate: "2024-01-01", Markets: []string{"US"}},
		},
		artists: []catalog.Artist{{URI: "spotify:artist:1", Name: "Artist", Popularity: 55}},
		lists: []playlist.Playlist{
			{URI: "spotify:playlist:off", Name: "lofi", OwnerID: "spotify"},
			{URI: "spotify:playlist:mine", Name: "lofi", OwnerID: "me"},
			{URI: "", Name: "null item"},
		},
		shows: []catalog.Show{
			{URI: "spotify:show:jp", Name: "Talk", Markets: []string{"JP"}},
			{URI: "spotify:show:us", Name: "Talk US", Markets: []string{"US"}},
		},
		episodes: []catalog.Episode{{URI: "spotify:episode:1", Name: "Ep", ShowName: "Talk"}},
		failing:  map[candidate.Type]bool{},
	}
}

func uris(cands []candidate.Candidate) []string {
	result := make([]string, len(cands))
	for i, c := range cands {
		result[i] = c.URI
	}
	return result
}

func TestEngine_Search_UnionAndMarketFiltering(t *testing.T) {
	cat := newFakeCatalog()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(cat, 5, WithClock(func() time.Time { return now }))

	got := engine.Search(context.Background(), "song", Options{Market: "JP", UserID: "me"})

	assert.Equal(t, []string{
		"spotify:track:jp",
		"spotify:album:new",
		"spotify:artist:1",
		"spotify:playlist:off",
		"spotify:playlist:mine",
		"spotify:show:jp",
		"spotify:episode:1",
	}, uris(got))

	require.Len(t, cat.queries, 6)
	for _, q := range cat.queries {
		assert.Equal(t, Query{Text: "song", Market: "JP", Limit: 5}, q)
	}
}

func TestEngine_Search_PartialDegradation(t *testing.T) {
	cat := newFakeCatalog()
	cat.failing[candidate.TypeTrack] = true
	cat.failing[candidate.TypePlaylist] = true

	got := NewEngine(cat, 0).Search(context.Background(), "song", Options{Market: "JP"})

	for _, c := range got {
		assert.NotEqual(t, candidate.TypeTrack, c.Type)
		assert.NotEqual(t, candidate.TypePlaylist, c.Type)
	}
	assert.Contains(t, uris(got), "spotify:artist:1")
	assert.Contains(t, uris(got), "spotify:episode:1")
}

func TestEngine_Search_PlaylistPopularity(t *testing.T) {
	tests := []struct {
		name         string
		originalType string
		wantMine     int
	}{
		{"plain playlist lookup", "playlist", 50},
		{"genre lookup", "genre", -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEngine(newFakeCatalog(), 0).Search(context.Background(), "lofi",
				Options{Market: "JP", UserID: "me", OriginalType: tt.originalType})

			byURI := map[string]candidate.Candidate{}
			for _, c := range got {
				byURI[c.URI] = c
			}
			assert.Equal(t, 1000, byURI["spotify:playlist:off"].Popularity)
			assert.True(t, byURI["spotify:playlist:off"].IsOfficial)
			assert.Equal(t, tt.wantMine, byURI["spotify:playlist:mine"].Popularity)
			assert.False(t, byURI["spotify:playlist:mine"].IsOfficial)
		})
	}
}

func TestRecencyBoost(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		release string
		want    int
	}{
		{"2024-01-01", 100},
		{"2023-01-01", 50},
		{"2023", 50},
		{"2022-01-01", 25},
		{"2025-06-01", 100},
		{"", 0},
		{"not a date", 0},
	}

	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			assert.Equal(t, tt.want, RecencyBoost(tt.release, now))
		})
	}
}

func TestPlaylistPopularity(t *testing.T) {
	official := &playlist.Playlist{OwnerID: "spotify"}
	mine := &playlist.Playlist{OwnerID: "me"}
	other := &playlist.Playlist{OwnerID: "bob"}

	assert.Equal(t, 1000, PlaylistPopularity(official, "me", "genre"))
	assert.Equal(t, 50, PlaylistPopularity(mine, "me", ""))
	assert.Equal(t, -50, PlaylistPopularity(mine, "me", "genre"))
	assert.Equal(t, 0, PlaylistPopularity(other, "me", ""))
	assert.Equal(t, 0, PlaylistPopularity(mine, "", ""))
}
