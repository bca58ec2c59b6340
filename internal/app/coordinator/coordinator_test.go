package coordinator

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/muse/internal/app/ranker"
	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/infra/auth"
)

type stubSearcher struct {
	cands []candidate.Candidate
	texts []string
	opts  []search.Options
}

func (s *stubSearcher) Search(_ context.Context, text string, opts search.Options) []candidate.Candidate {
	s.texts = append(s.texts, text)
	s.opts = append(s.opts, opts)
	return s.cands
}

type stubProfiles struct {
	profile catalog.Profile
	err     error
	calls   int
}

func (p *stubProfiles) CurrentProfile(context.Context) (catalog.Profile, error) {
	p.calls++
	return p.profile, p.err
}

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bohemian Rhapsody!", "Bohemian Rhapsody"},
		{"  lo-fi   beats\t", "lofi beats"},
		{"Café del Mar 2", "Café del Mar 2"},
		{"?!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestResolve_Track(t *testing.T) {
	searcher := &stubSearcher{cands: []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "spotify:track:1", "Track: Yesterday by The Beatles", 80),
		candidate.New(candidate.TypeAlbum, "spotify:album:1", "Album: Yesterday and Today by The Beatles", 70),
	}}
	profiles := &stubProfiles{profile: catalog.Profile{UserID: "me", Market: "JP"}}
	c := New(searcher, profiles, 10, WithRand(firstRand{}))

	got, err := c.Resolve(context.Background(), "Yesterday!", "track", "track")
	require.NoError(t, err)
	assert.Equal(t, Resolution{URI: "spotify:track:1", FriendlyName: "Track: Yesterday by The Beatles", Type: candidate.TypeTrack}, got)

	require.Len(t, searcher.opts, 1)
	assert.Equal(t, "Yesterday", searcher.texts[0])
	assert.Equal(t, search.Options{Market: "JP", UserID: "me", OriginalType: "track"}, searcher.opts[0])
}

func TestResolve_GenreSearchesPlaylists(t *testing.T) {
	official := candidate.New(candidate.TypePlaylist, "spotify:playlist:off", "Playlist: Jazz Classics by Spotify", 1000)
	official.IsOfficial = true
	searcher := &stubSearcher{cands: []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "spotify:track:jazz", "Track: Jazz by Someone", 99),
		candidate.New(candidate.TypePlaylist, "spotify:playlist:mine", "Playlist: Jazz by me", -50),
		official,
	}}
	c := New(searcher, &stubProfiles{profile: catalog.Profile{UserID: "me"}}, 10, WithRand(firstRand{}))

	got, err := c.Resolve(context.Background(), "jazz", TypeGenre, "")
	require.NoError(t, err)
	assert.Equal(t, "spotify:playlist:off", got.URI)
	assert.Equal(t, TypeGenre, searcher.opts[0].OriginalType)
}

func TestResolve_ProfileCachedOnce(t *testing.T) {
	searcher := &stubSearcher{cands: []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "spotify:track:1", "Track: x", 1),
	}}
	profiles := &stubProfiles{profile: catalog.Profile{UserID: "me", Market: "US"}}
	c := New(searcher, profiles, 10)

	for i := 0; i < 3; i++ {
		_, err := c.Resolve(context.Background(), "x", "", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, profiles.calls)
}

func TestResolve_ProfileFailure(t *testing.T) {
	cands := []candidate.Candidate{candidate.New(candidate.TypeTrack, "spotify:track:1", "Track: x", 1)}

	t.Run("auth error propagates", func(t *testing.T) {
		searcher := &stubSearcher{cands: cands}
		c := New(searcher, &stubProfiles{err: errors.Mark(errors.New("token revoked"), auth.ErrAuth)}, 10)

		_, err := c.Resolve(context.Background(), "x", "", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrAuth))
		assert.Empty(t, searcher.texts)
	})

	t.Run("other errors search without market", func(t *testing.T) {
		searcher := &stubSearcher{cands: cands}
		profiles := &stubProfiles{err: errors.New("timeout")}
		c := New(searcher, profiles, 10)

		got, err := c.Resolve(context.Background(), "x", "", "")
		require.NoError(t, err)
		assert.Equal(t, "spotify:track:1", got.URI)
		assert.Equal(t, "", searcher.opts[0].Market)

		_, _ = c.Resolve(context.Background(), "x", "", "")
		assert.Equal(t, 2, profiles.calls, "failures are not cached")
	})
}

func TestResolve_NoMatch(t *testing.T) {
	c := New(&stubSearcher{}, &stubProfiles{}, 10)

	_, err := c.Resolve(context.Background(), "nothing", "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.True(t, errors.Is(err, ranker.ErrNoCandidates))

	_, err = c.Resolve(context.Background(), "!!!", "", "")
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestResolve_UnknownTypeIgnored(t *testing.T) {
	searcher := &stubSearcher{cands: []candidate.Candidate{
		candidate.New(candidate.TypeAlbum, "spotify:album:1", "Album: x", 1),
	}}
	c := New(searcher, &stubProfiles{}, 10)

	got, err := c.Resolve(context.Background(), "x", "mixtape", "")
	require.NoError(t, err)
	assert.Equal(t, "spotify:album:1", got.URI)
}

func TestWithMarket(t *testing.T) {
	searcher := &stubSearcher{cands: []candidate.Candidate{candidate.New(candidate.TypeTrack, "u", "Track: x", 1)}}
	c := New(searcher, &stubProfiles{profile: catalog.Profile{Market: "JP"}}, 10, WithMarket("GB"))

	_, err := c.Resolve(context.Background(), "x", "", "")
	require.NoError(t, err)
	assert.Equal(t, "GB", searcher.opts[0].Market)
}

func TestRecord_FeedsTieBreak(t *testing.T) {
	searcher := &stubSearcher{cands: []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "a", "Track: x", 1),
		candidate.New(candidate.TypeTrack, "b", "Track: x", 1),
	}}
	c := New(searcher, &stubProfiles{}, 10, WithRand(firstRand{}))

	c.Record("a")
	assert.True(t, c.History().Contains("a"))

	got, err := c.Resolve(context.Background(), "x", "", "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.URI)
}
