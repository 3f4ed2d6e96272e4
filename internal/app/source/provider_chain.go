package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// ErrNoTracks is returned when no provider yields a playable queue.
var ErrNoTracks = errors.New("all providers failed to return tracks")

// TrackFilter narrows a sourced track list.
type TrackFilter interface {
	Apply(ctx context.Context, tracks []track.Track) []track.Track
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Selection is the queue chosen by a ProviderChain.
type Selection struct {
	Tracks      []track.Track
	DisplayName string
}

// ProviderChain tries providers in order until one yields a non-empty queue
// after filtering.
type ProviderChain struct {
	providers []ProviderWithMetadata
	filter    TrackFilter
}

// NewProviderChain creates a new provider chain. A nil filter keeps every track.
func NewProviderChain(providers []ProviderWithMetadata, filter TrackFilter) *ProviderChain {
	return &ProviderChain{
		providers: providers,
		filter:    filter,
	}
}

// Select returns the first non-empty filtered queue.
func (c *ProviderChain) Select(ctx context.Context) (Selection, error) {
	for i, pm := range c.providers {
		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		tracks, err := pm.Provider.Tracks(ctx)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		sourced := len(tracks)
		if c.filter != nil {
			tracks = c.filter.Apply(ctx, tracks)
		}
		if len(tracks) == 0 {
			zlog.Debug().Msgf("provider returned no tracks: provider=%s sourced=%d", pm.DisplayName, sourced)
			continue
		}

		zlog.Info().Msgf("provider selected: provider=%s count=%d rejected=%d",
			pm.DisplayName, len(tracks), sourced-len(tracks))
		return Selection{Tracks: tracks, DisplayName: pm.DisplayName}, nil
	}

	return Selection{}, ErrNoTracks
}

// Providers returns the providers in the chain.
func (c *ProviderChain) Providers() []ProviderWithMetadata {
	return c.providers
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}
