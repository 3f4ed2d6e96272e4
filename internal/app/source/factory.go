package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// spotify may be nil when no spotify_playlist provider is configured.
func NewProviderChainFromConfig(cfg *config.Config, spotify SpotifyClient, filter TrackFilter) (*ProviderChain, error) {
	if len(cfg.Queue.Providers) == 0 {
		return nil, errors.New("no queue providers configured")
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Queue.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating queue provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "static":
			provider, err = NewStaticProvider(pcfg.Settings)

		case "spotify_playlist":
			provider, err = NewPlaylistProvider(spotify, pcfg.Settings)

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

		zlog.Info().Msgf("registered queue provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers, filter), nil
}

// ValidatePlaylists checks that every configured Spotify playlist is
// reachable. It only reports problems; an unreachable playlist is skipped
// by the provider chain at selection time.
func ValidatePlaylists(ctx context.Context, cfg *config.Config, spotify SpotifyClient) error {
	if spotify == nil {
		return nil
	}

	var errs []string
	for i, pcfg := range cfg.Queue.Providers {
		if pcfg.Type != "spotify_playlist" {
			continue
		}
		var pc PlaylistProviderConfig
		if err := decodeSettings(pcfg.Settings, &pc); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", pcfg.DisplayName, err))
			continue
		}

		zlog.Info().Msgf("validating playlist: index=%d display_name=%s url=%s", i+1, pcfg.DisplayName, pc.PlaylistURL)
		if err := spotify.CheckPlaylistExists(ctx, pc.PlaylistURL); err != nil {
			errs = append(errs, fmt.Sprintf("%s (%s): %v", pcfg.DisplayName, pc.PlaylistURL, err))
			continue
		}
		zlog.Info().Msgf("playlist validated: display_name=%s", pcfg.DisplayName)
	}

	if len(errs) > 0 {
		return errors.Newf("playlist validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
