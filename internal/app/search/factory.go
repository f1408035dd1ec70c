package search

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// Providers whose credentials are missing are skipped. The demo catalog
// always closes the chain so a search never fails for lack of a backend.
func NewProviderChainFromConfig(ctx context.Context, cfg config.SearchConfig) (*ProviderChain, error) {
	var providers []ProviderWithMetadata
	hasDemo := false

	for i, pcfg := range cfg.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("search: creating provider index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case config.ProviderYouTube:
			provider, err = NewYouTubeProvider(pcfg.Settings)

		case config.ProviderSpotify:
			provider, err = NewSpotifyProvider(ctx, pcfg.Settings)

		case config.ProviderDemo:
			provider = NewDemoProvider()
			hasDemo = true

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if errors.Is(err, ErrMissingCredentials) {
			zlog.Warn().Msgf("search: skipping provider index=%d type=%s reason=%v", i+1, pcfg.Type, err)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		displayName := pcfg.DisplayName
		if displayName == "" {
			displayName = provider.Name()
		}
		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: displayName,
		})

		zlog.Info().Msgf("search: registered provider index=%d type=%s display_name=%s", i+1, pcfg.Type, displayName)
	}

	if !hasDemo {
		providers = append(providers, ProviderWithMetadata{Provider: NewDemoProvider(), DisplayName: "demo"})
		zlog.Info().Msg("search: registered fallback provider type=demo")
	}

	return NewProviderChain(providers, cfg.DefaultMaxResults), nil
}
