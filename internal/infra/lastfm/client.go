// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Similar tracks keyed by artist and track name
	similarCache map[string][]TrackRef
	cacheMu      sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string // Optional, used in tests
}

// TrackRef is a track known to Last.fm by name and artist.
type TrackRef struct {
	Name   string
	Artist string
}

type trackList struct {
	Track []struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"track"`
}

func (l trackList) refs() []TrackRef {
	refs := make([]TrackRef, 0, len(l.Track))
	for _, t := range l.Track {
		refs = append(refs, TrackRef{Name: t.Name, Artist: t.Artist.Name})
	}
	return refs
}

type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		similarCache: make(map[string][]TrackRef),
	}, nil
}

// SimilarTracks retrieves tracks similar to the given one.
// Reference: https://www.last.fm/api/show/track.getSimilar
func (c *Client) SimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]TrackRef, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	cacheKey := artistName + "\x00" + trackName
	c.cacheMu.RLock()
	if refs, ok := c.similarCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("lastfm: using cached similar tracks: artist=%s track=%s", artistName, trackName)
		return refs, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("method", "track.getSimilar")
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("limit", strconv.Itoa(clampLimit(limit)))
	params.Set("autocorrect", "1")

	var response struct {
		SimilarTracks trackList `json:"similartracks"`
	}
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}

	refs := response.SimilarTracks.refs()
	c.cacheMu.Lock()
	c.similarCache[cacheKey] = refs
	c.cacheMu.Unlock()
	return refs, nil
}

// ChartTopTracks retrieves the global top tracks.
// Reference: https://www.last.fm/api/show/chart.getTopTracks
func (c *Client) ChartTopTracks(ctx context.Context, limit int) ([]TrackRef, error) {
	params := url.Values{}
	params.Set("method", "chart.getTopTracks")
	params.Set("limit", strconv.Itoa(clampLimit(limit)))

	var response struct {
		Tracks trackList `json:"tracks"`
	}
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}
	return response.Tracks.refs(), nil
}

// call performs a GET request and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("last.fm API returned HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
