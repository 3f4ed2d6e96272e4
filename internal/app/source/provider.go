// Package source provides the strategies that produce the initial play queue.
package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// Provider is the interface for queue track providers.
// Different implementations produce tracks from different places
// (e.g., static config entries, a Spotify playlist).
type Provider interface {
	// Tracks returns the provider's tracks in queue order.
	Tracks(ctx context.Context) ([]track.Track, error)

	// Name returns the provider name (used in config).
	Name() string
}

// SpotifyClient defines the interface for Spotify operations needed by providers.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
	CheckPlaylistExists(ctx context.Context, playlistURL string) error
}

// decodeSettings decodes a provider settings block into out, applies
// defaults and validates the result.
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
