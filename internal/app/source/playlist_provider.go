package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// PlaylistProviderConfig is the settings block of a spotify_playlist provider.
type PlaylistProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
	Limit       int    `yaml:"limit" mapstructure:"limit" validate:"gte=0"` // 0 means the whole playlist
}

// PlaylistProvider provides tracks from a Spotify playlist in playlist order.
// The playlist is fetched once and cached for later calls.
type PlaylistProvider struct {
	spotify SpotifyClient
	cache   []track.Track
	config  *PlaylistProviderConfig
}

// NewPlaylistProvider creates a new PlaylistProvider.
func NewPlaylistProvider(spotify SpotifyClient, settings map[string]any) (*PlaylistProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is required")
	}

	var config PlaylistProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		zlog.Error().Msgf("playlist provider validation failed: %v", err)
		return nil, err
	}
	zlog.Debug().Msgf("playlist provider config: %+v", config)
	return &PlaylistProvider{
		spotify: spotify,
		config:  &config}, nil
}

// Tracks retrieves the playlist tracks, up to the configured limit.
func (p *PlaylistProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	if p.cache == nil {
		tracks, err := p.spotify.GetPlaylistTracks(ctx, p.config.PlaylistURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get tracks from playlist")
		}
		p.cache = tracks
	}

	n := len(p.cache)
	if p.config.Limit > 0 && p.config.Limit < n {
		n = p.config.Limit
	}
	out := make([]track.Track, n)
	copy(out, p.cache[:n])
	return out, nil
}

// Name returns the provider name.
func (p *PlaylistProvider) Name() string {
	return "spotify_playlist"
}
