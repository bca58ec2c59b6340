package bgm

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/domain/track"
)

// ErrNoCandidates is returned when no provider produced a track.
var ErrNoCandidates = errors.New("no random music candidates")

// CandidateWithSource represents a track candidate with its source provider info.
type CandidateWithSource struct {
	Track       track.Track
	DisplayName string
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain tries multiple providers in order until enough candidates are found.
type ProviderChain struct {
	providers []ProviderWithMetadata
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata) *ProviderChain {
	return &ProviderChain{
		providers: providers,
	}
}

// GetCandidates collects up to count candidates, trying providers in order.
// A failing provider is skipped.
func (c *ProviderChain) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeURIs map[string]bool) ([]CandidateWithSource, error) {
	var all []CandidateWithSource
	exclude := make(map[string]bool, len(excludeURIs))
	for k, v := range excludeURIs {
		exclude[k] = v
	}

	for i, pm := range c.providers {
		if len(all) >= count {
			break
		}
		zlog.Debug().Msgf("bgm: trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		candidates, err := pm.Provider.GetCandidates(ctx, count-len(all), seedTracks, exclude)
		if err != nil {
			zlog.Warn().Msgf("bgm: provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		for _, t := range filterExcluded(candidates, exclude) {
			all = append(all, CandidateWithSource{Track: t, DisplayName: pm.DisplayName})
			// Avoid duplicates from the next provider
			exclude[t.URI] = true
		}

		zlog.Info().Msgf("bgm: provider returned candidates: provider=%s count=%d total_so_far=%d",
			pm.DisplayName, len(candidates), len(all))
	}

	if len(all) == 0 {
		return nil, ErrNoCandidates
	}
	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}

// Providers returns the configured providers in order.
func (c *ProviderChain) Providers() []ProviderWithMetadata {
	return c.providers
}
