package bgm

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/domain/track"
	"github.com/osa030/muse/internal/infra/lastfm"
)

// LastFmClient defines the interface for Last.fm operations.
type LastFmClient interface {
	SimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.TrackRef, error)
	ChartTopTracks(ctx context.Context, limit int) ([]lastfm.TrackRef, error)
}

type LastFmProviderConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	SeedTrackCount int    `yaml:"seed_track_count" mapstructure:"seed_track_count" default:"3" validate:"gte=1"`
	SimilarLimit   int    `yaml:"similar_limit" mapstructure:"similar_limit" default:"20" validate:"gte=1,lte=100"`
}

// LastFmProvider provides tracks similar to the seed tracks, or from the
// global chart when there is no seed, resolved to Spotify through search.
type LastFmProvider struct {
	lastfm  LastFmClient
	spotify SpotifyClient
	config  *LastFmProviderConfig

	// Spotify search results keyed by "name:artist"; nil records a miss.
	// Failed searches are never cached.
	cacheMu     sync.RWMutex
	searchCache map[string]*track.Track
}

// NewLastFmProvider creates a new LastFmProvider.
func NewLastFmProvider(spotify SpotifyClient, settings map[string]any) (*LastFmProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is required")
	}
	var config LastFmProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}

	client, err := lastfm.New(lastfm.Config{APIKey: config.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create last.fm client")
	}
	return newLastFmProvider(spotify, client, &config), nil
}

func newLastFmProvider(spotify SpotifyClient, client LastFmClient, config *LastFmProviderConfig) *LastFmProvider {
	return &LastFmProvider{
		lastfm:      client,
		spotify:     spotify,
		config:      config,
		searchCache: make(map[string]*track.Track),
	}
}

// GetCandidates retrieves tracks similar to the seeds.
func (p *LastFmProvider) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeURIs map[string]bool) ([]track.Track, error) {
	if count <= 0 {
		return nil, nil
	}

	if len(seedTracks) > p.config.SeedTrackCount {
		seedTracks = seedTracks[:p.config.SeedTrackCount]
	}

	var refs []lastfm.TrackRef
	for _, seed := range seedTracks {
		if len(seed.Artists) == 0 {
			continue
		}
		similar, err := p.lastfm.SimilarTracks(ctx, seed.Name, seed.Artists[0], p.config.SimilarLimit)
		if err != nil {
			zlog.Debug().Msgf("bgm: similar tracks failed: track=%s error=%v", seed.Name, err)
			continue
		}
		refs = append(refs, similar...)
	}

	if len(refs) == 0 {
		// No seed or nothing similar, fall back to the global chart
		chart, err := p.lastfm.ChartTopTracks(ctx, 50)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get chart top tracks")
		}
		refs = chart
	}

	rand.Shuffle(len(refs), func(i, j int) {
		refs[i], refs[j] = refs[j], refs[i]
	})

	var candidates []track.Track
	for _, ref := range refs {
		t := p.searchOnSpotify(ctx, ref)
		if t == nil || excludeURIs[t.URI] {
			continue
		}
		candidates = append(candidates, *t)
		if len(candidates) >= count {
			break
		}
	}
	return filterExcluded(candidates, excludeURIs), nil
}

// Name returns the provider name.
func (p *LastFmProvider) Name() string {
	return "lastfm"
}

// searchOnSpotify resolves a Last.fm track on Spotify with caching.
func (p *LastFmProvider) searchOnSpotify(ctx context.Context, ref lastfm.TrackRef) *track.Track {
	key := fmt.Sprintf("%s:%s", ref.Name, ref.Artist)

	p.cacheMu.RLock()
	if cached, ok := p.searchCache[key]; ok {
		p.cacheMu.RUnlock()
		return cached
	}
	p.cacheMu.RUnlock()

	results, err := p.spotify.SearchTracks(ctx, search.Query{
		Text:  fmt.Sprintf("track:%s artist:%s", ref.Name, ref.Artist),
		Limit: 1,
	})
	if err != nil {
		// Not cached, the next call searches again
		zlog.Debug().Msgf("bgm: spotify search failed: track=%s artist=%s error=%v", ref.Name, ref.Artist, err)
		return nil
	}

	var found *track.Track
	if len(results) > 0 {
		found = &results[0]
	}

	// Empty results are cached as misses
	p.cacheMu.Lock()
	p.searchCache[key] = found
	p.cacheMu.Unlock()
	return found
}
