package ranker

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/history"
)

// fixedRand always picks index n (modulo the set size) and records set sizes.
type fixedRand struct {
	n     int
	sizes []int
}

func (f *fixedRand) Intn(n int) int {
	f.sizes = append(f.sizes, n)
	return f.n % n
}

func TestWordScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		cand  string
		want  int
	}{
		{
			name:  "exact title with label and clauses",
			query: "Bohemian Rhapsody",
			cand:  "Track: Bohemian Rhapsody by Queen (Album: A Night at the Opera)",
			want:  10 + 10 + 5 + 50 + 5,
		},
		{
			name:  "loose match",
			query: "Bohemian Rhapsody",
			cand:  "Track: Bohemian Like You by The Dandy Warhols",
			want:  10,
		},
		{
			name:  "growing run",
			query: "a b c",
			cand:  "x a b c",
			want:  10 + (10 + 5) + (10 + 10) + 50,
		},
		{
			name:  "miss resets run",
			query: "a z b",
			cand:  "a b",
			want:  20,
		},
		{
			name:  "artist exact",
			query: "queen",
			cand:  "Artist: Queen",
			want:  10 + 50 + 5,
		},
		{
			name:  "case insensitive",
			query: "LOFI",
			cand:  "Playlist: lofi beats by Spotify",
			want:  10 + 50,
		},
		{
			name:  "empty query",
			query: "  ",
			cand:  "Track: anything",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordScore(tt.query, tt.cand))
		})
	}
}

func TestRank_ExactTitleWins(t *testing.T) {
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "spotify:track:like", "Track: Bohemian Like You by The Dandy Warhols", 90),
		candidate.New(candidate.TypeTrack, "spotify:track:br", "Track: Bohemian Rhapsody by Queen (Album: A Night at the Opera)", 80),
		candidate.New(candidate.TypeAlbum, "spotify:album:x", "Album: Bohemian by Someone", 100),
	}

	r := New(history.New(100), &fixedRand{})
	got, err := r.Rank("Bohemian Rhapsody", cands, candidate.TypeTrack)
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:br", got.URI)
}

func TestRank_GenreFallbackPrefersOfficial(t *testing.T) {
	official := candidate.New(candidate.TypePlaylist, "spotify:playlist:off", "Playlist: lofi beats to relax by Spotify", 1000)
	official.IsOfficial = true
	mine := candidate.New(candidate.TypePlaylist, "spotify:playlist:mine", "Playlist: lofi by me", -50)

	r := New(nil, &fixedRand{})
	scored := r.Score("lofi", []candidate.Candidate{mine, official}, candidate.TypePlaylist)
	require.Len(t, scored, 2)
	assert.Greater(t, scored[1].Score, scored[0].Score, "user playlist has the better word score")
	assert.Equal(t, "spotify:playlist:off", scored[0].URI)

	got, err := r.Rank("lofi", []candidate.Candidate{mine, official}, candidate.TypePlaylist)
	require.NoError(t, err)
	assert.Equal(t, "spotify:playlist:off", got.URI)
}

func TestScore_SortKeys(t *testing.T) {
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeArtist, "artist", "Artist: song", 100),
		candidate.New(candidate.TypeAlbum, "album-low", "Album: song", 10),
		candidate.New(candidate.TypeTrack, "track", "Track: song", 0),
		candidate.New(candidate.TypeAlbum, "album-high", "Album: song", 20),
		candidate.New(candidate.TypeTrack, "other", "Track: other", 100),
	}

	scored := New(nil, &fixedRand{}).Score("song", cands, "")

	got := make([]string, len(scored))
	for i, s := range scored {
		got[i] = s.URI
	}
	assert.Equal(t, []string{"track", "album-high", "album-low", "artist", "other"}, got)
}

func TestScore_Deterministic(t *testing.T) {
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "a", "Track: hello world", 10),
		candidate.New(candidate.TypeTrack, "b", "Track: hello world", 10),
		candidate.New(candidate.TypeAlbum, "c", "Album: hello", 50),
		candidate.New(candidate.TypeArtist, "d", "Artist: world", 70),
	}
	h := history.New(100)
	h.Add("a")
	r := New(h, &fixedRand{})

	first := r.Score("hello world", cands, "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Score("hello world", cands, ""))
	}
}

func TestRank_TieBreakExcludesHistory(t *testing.T) {
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "a", "Track: hello", 10),
		candidate.New(candidate.TypeTrack, "b", "Track: hello", 10),
		candidate.New(candidate.TypeTrack, "c", "Track: hello", 10),
		candidate.New(candidate.TypeTrack, "d", "Track: hello", 5),
	}
	h := history.New(100)
	h.Add("a")
	h.Add("d")
	rnd := &fixedRand{n: 0}
	r := New(h, rnd)

	tied := r.Tied(r.Score("hello", cands, ""))
	require.Len(t, tied, 2)
	assert.Equal(t, "b", tied[0].URI)
	assert.Equal(t, "c", tied[1].URI)

	got, err := r.Rank("hello", cands, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.URI)
	assert.Equal(t, []int{2}, rnd.sizes)
}

func TestRank_HistoryExclusionSkippedWhenEmpty(t *testing.T) {
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "a", "Track: hello", 10),
		candidate.New(candidate.TypeTrack, "b", "Track: hello", 10),
		candidate.New(candidate.TypeTrack, "c", "Track: hello", 1),
	}
	h := history.New(100)
	h.Add("a")
	h.Add("b")
	rnd := &fixedRand{n: 1}

	got, err := New(h, rnd).Rank("hello", cands, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.URI)
	assert.Equal(t, []int{2}, rnd.sizes)
}

func TestRank_NoCandidates(t *testing.T) {
	r := New(nil, &fixedRand{})

	_, err := r.Rank("x", nil, "")
	assert.True(t, errors.Is(err, ErrNoCandidates))

	cands := []candidate.Candidate{candidate.New(candidate.TypeAlbum, "a", "Album: x", 1)}
	_, err = r.Rank("x", cands, candidate.TypeTrack)
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

func TestNew_DefaultRand(t *testing.T) {
	r := New(nil, nil)
	cands := []candidate.Candidate{
		candidate.New(candidate.TypeTrack, "a", "Track: x", 1),
		candidate.New(candidate.TypeTrack, "b", "Track: x", 1),
	}
	got, err := r.Rank("x", cands, "")
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, got.URI)
}
