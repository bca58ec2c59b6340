package bgm

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// With no providers configured the user's liked songs are used.
func NewProviderChainFromConfig(cfg config.RandomConfig, spotify SpotifyClient) (*ProviderChain, error) {
	if len(cfg.Providers) == 0 {
		zlog.Info().Msg("bgm: no providers configured, using liked songs")
		return NewProviderChain([]ProviderWithMetadata{
			{Provider: NewSavedProvider(spotify), DisplayName: "Liked Songs"},
		}), nil
	}

	var providers []ProviderWithMetadata
	for i, pcfg := range cfg.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("bgm: creating provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "playlist":
			provider, err = NewPlaylistProvider(spotify, cfg.CandidateCount, pcfg.Settings)

		case "lastfm":
			provider, err = NewLastFmProvider(spotify, pcfg.Settings)

		case "saved":
			provider = NewSavedProvider(spotify)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("bgm: registered provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers), nil
}
