package bgm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/domain/track"
)

type PlaylistProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
}

// PlaylistProvider provides tracks by randomly selecting from a configured playlist.
// It keeps unused tracks of the last fetch to save API calls.
type PlaylistProvider struct {
	spotify        SpotifyClient
	candidateCount int // Tracks fetched per API call
	config         *PlaylistProviderConfig

	mu    sync.Mutex
	cache []track.Track
}

// NewPlaylistProvider creates a new PlaylistProvider.
func NewPlaylistProvider(spotify SpotifyClient, candidateCount int, settings map[string]any) (*PlaylistProvider, error) {
	var config PlaylistProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("bgm: playlist provider config: %+v", config)
	return &PlaylistProvider{
		spotify:        spotify,
		candidateCount: candidateCount,
		config:         &config,
	}, nil
}

// GetCandidates retrieves random tracks from the configured playlist.
func (p *PlaylistProvider) GetCandidates(ctx context.Context, count int, _ []track.Track, excludeURIs map[string]bool) ([]track.Track, error) {
	if count <= 0 {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	available := filterExcluded(p.cache, excludeURIs)
	if len(available) < count {
		fetch := p.candidateCount
		if fetch < count {
			fetch = count
		}
		fresh, err := p.spotify.PlaylistTracksRandom(ctx, p.config.PlaylistURL, fetch)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get random tracks from playlist")
		}
		available = filterExcluded(append(available, fresh...), excludeURIs)
	}

	n := count
	if n > len(available) {
		n = len(available)
	}
	result := available[:n]
	p.cache = append([]track.Track(nil), available[n:]...)
	return result, nil
}

// Name returns the provider name.
func (p *PlaylistProvider) Name() string {
	return "playlist"
}

// SavedProvider provides tracks from a random page of the user's liked songs.
type SavedProvider struct {
	spotify SpotifyClient
}

// NewSavedProvider creates a new SavedProvider.
func NewSavedProvider(spotify SpotifyClient) *SavedProvider {
	return &SavedProvider{spotify: spotify}
}

// GetCandidates retrieves random liked songs.
func (p *SavedProvider) GetCandidates(ctx context.Context, count int, _ []track.Track, excludeURIs map[string]bool) ([]track.Track, error) {
	if count <= 0 {
		return nil, nil
	}
	// Over-fetch so history exclusion still leaves enough.
	tracks, err := p.spotify.SavedTracksRandom(ctx, count*2)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get random saved tracks")
	}
	tracks = filterExcluded(tracks, excludeURIs)
	if len(tracks) > count {
		tracks = tracks[:count]
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *SavedProvider) Name() string {
	return "saved"
}

// decodeSettings decodes provider settings, applies defaults and validates them.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
