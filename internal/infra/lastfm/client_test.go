package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarTracks(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "track.getSimilar", r.URL.Query().Get("method"))
		assert.Equal(t, "Queen", r.URL.Query().Get("artist"))
		assert.Equal(t, "Bohemian Rhapsody", r.URL.Query().Get("track"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"similartracks": {
				"track": [
					{"name": "Somebody to Love", "artist": {"name": "Queen"}},
					{"name": "Killer Queen", "artist": {"name": "Queen"}}
				]
			}
		}`)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	ctx := context.Background()
	refs, err := client.SimilarTracks(ctx, "Bohemian Rhapsody", "Queen", 5)
	require.NoError(t, err)
	assert.Equal(t, []TrackRef{
		{Name: "Somebody to Love", Artist: "Queen"},
		{Name: "Killer Queen", Artist: "Queen"},
	}, refs)

	cached, err := client.SimilarTracks(ctx, "Bohemian Rhapsody", "Queen", 5)
	require.NoError(t, err)
	assert.Equal(t, refs, cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSimilarTracks_RequiresNames(t *testing.T) {
	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)

	_, err = client.SimilarTracks(context.Background(), "", "Queen", 5)
	assert.Error(t, err)
}

func TestChartTopTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chart.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tracks": {"track": [{"name": "Song", "artist": {"name": "Band"}}]}}`)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	refs, err := client.ChartTopTracks(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, []TrackRef{{Name: "Song", Artist: "Band"}}, refs)
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error": 10, "message": "Invalid API key"}`)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "bad", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	_, err = client.ChartTopTracks(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
