package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/infra/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		RequestsPerSecond: 1000,
		Burst:             10,
		RetryDelay:        time.Millisecond,
		BaseURL:           server.URL + "/",
	}, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Localized URL",
			input:    "https://open.spotify.com/intl-ja/playlist/abc123/",
			expected: "abc123",
		},
		{
			name:     "Plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPlaylistID(tt.input))
		})
	}
}

func TestExtractTrackID(t *testing.T) {
	assert.Equal(t, "abc", extractTrackID("spotify:track:abc"))
	assert.Equal(t, "abc", extractTrackID("https://open.spotify.com/track/abc?si=1"))
	assert.Equal(t, "spotify:album:abc", extractTrackID("spotify:album:abc"))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"rate limit error with 429", errors.New("Error 429: rate limit exceeded"), true},
		{"server error 500", errors.New("Error 500: internal server error"), true},
		{"server error 503", errors.New("503 Service Unavailable"), true},
		{"client error 400", errors.New("400 Bad Request"), false},
		{"not found error", errors.New("404 not found"), false},
		{"generic error", errors.New("something went wrong"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	err := classify(errors.New("The access token expired"))
	assert.True(t, cerrors.Is(err, auth.ErrAuth))
	assert.False(t, cerrors.Is(err, ErrTransient))

	err = classify(cerrors.Mark(errors.New("refresh failed"), auth.ErrAuth))
	assert.True(t, cerrors.Is(err, auth.ErrAuth))

	err = classify(errors.New("503 Service Unavailable"))
	assert.True(t, cerrors.Is(err, ErrTransient))
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, "1975", releaseYear("1975-11-21"))
	assert.Equal(t, "1975", releaseYear("1975"))
	assert.Equal(t, "", releaseYear(""))
}

func TestClient_SearchTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "song", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "JP", r.URL.Query().Get("market"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tracks":{"items":[{"id":"1","uri":"spotify:track:1","name":"Song",
			"artists":[{"name":"A"},{"name":"B"}],"album":{"name":"Alb"},"popularity":50,
			"duration_ms":1000,"available_markets":["JP"]}],"total":1}}`)
	})

	tracks, err := client.SearchTracks(context.Background(), search.Query{Text: "song", Market: "JP", Limit: 5})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "spotify:track:1", tracks[0].URI)
	assert.Equal(t, []string{"A", "B"}, tracks[0].Artists)
	assert.Equal(t, "Alb", tracks[0].Album)
	assert.Equal(t, 50, tracks[0].Popularity)
	assert.Equal(t, []string{"JP"}, tracks[0].Markets)
	assert.Equal(t, time.Second, tracks[0].Duration)
}

func TestClient_PlayerSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/player", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"device":{"id":"d1","is_active":true,"name":"Kitchen","type":"Speaker","volume_percent":40},
			"shuffle_state":true,"repeat_state":"off","progress_ms":61000,"is_playing":true,
			"item":{"id":"t1","uri":"spotify:track:t1","name":"Bohemian Rhapsody","duration_ms":354000,
			"artists":[{"name":"Queen"}],"album":{"name":"A Night at the Opera","release_date":"1975-11-21"}}}`)
	})

	snap, err := client.PlayerSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.DeviceActive)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, "Kitchen", snap.DeviceName)
	assert.Equal(t, "t1", snap.TrackID)
	assert.Equal(t, "1975", snap.ReleaseYear)
	assert.Equal(t, 61000, snap.Progress())
	assert.Equal(t, 354000, snap.Duration())
	v, ok := snap.Volume()
	assert.True(t, ok)
	assert.Equal(t, 40, v)
	assert.True(t, snap.Shuffle)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"status":503,"message":"503 Service Unavailable"}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Pause(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_TransientAfterRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"status":502,"message":"502 Bad Gateway"}}`)
	})

	err := client.Next(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, ErrTransient))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_UnauthorizedIsAuthError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"status":401,"message":"The access token expired"}}`)
	})

	_, err := client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, auth.ErrAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures are not retried")
}

func TestRandomOffset(t *testing.T) {
	assert.Equal(t, 0, randomOffset(30, 100))
	off := randomOffset(250, 100)
	assert.GreaterOrEqual(t, off, 0)
	assert.LessOrEqual(t, off, 150)
}

func TestClient_CheckPlaylistExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/playlists/abc" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"Not found."}}`)
			return
		}
		assert.Equal(t, "id", r.URL.Query().Get("fields"))
		fmt.Fprint(w, `{"id":"abc"}`)
	})

	require.NoError(t, client.CheckPlaylistExists(context.Background(), "https://open.spotify.com/playlist/abc?si=x"))

	err := client.CheckPlaylistExists(context.Background(), "spotify:playlist:missing")
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, ErrTransient))
}
