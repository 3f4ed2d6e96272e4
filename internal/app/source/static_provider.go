package source

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// StaticTrackConfig is a track declared inline in the config file.
type StaticTrackConfig struct {
	Title       string  `yaml:"title" mapstructure:"title" validate:"required"`
	Artist      string  `yaml:"artist" mapstructure:"artist"`
	DurationSec float64 `yaml:"duration_sec" mapstructure:"duration_sec" validate:"gte=0"`
	Asset       string  `yaml:"asset" mapstructure:"asset"`
	ArtworkURL  string  `yaml:"artwork_url" mapstructure:"artwork_url" validate:"omitempty,url"`
}

// StaticProviderConfig is the settings block of a static provider.
type StaticProviderConfig struct {
	Tracks []StaticTrackConfig `yaml:"tracks" mapstructure:"tracks" validate:"required,min=1,dive"`
}

// StaticProvider serves a fixed list of tracks from the config file.
type StaticProvider struct {
	tracks []track.Track
}

// NewStaticProvider creates a new StaticProvider from provider settings.
func NewStaticProvider(settings map[string]any) (*StaticProvider, error) {
	var config StaticProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		zlog.Error().Msgf("static provider validation failed: %v", err)
		return nil, err
	}
	for i, t := range config.Tracks {
		if t.Asset != "" && t.ArtworkURL != "" {
			return nil, errors.Newf("track %d: asset and artwork_url are mutually exclusive", i)
		}
	}

	tracks := lo.Map(config.Tracks, func(t StaticTrackConfig, _ int) track.Track {
		var artwork *track.ArtworkRef
		switch {
		case t.Asset != "":
			artwork = track.LocalAsset(t.Asset)
		case t.ArtworkURL != "":
			artwork = track.Remote(t.ArtworkURL)
		}
		return track.New(t.Title, t.Artist, time.Duration(t.DurationSec*float64(time.Second)), artwork)
	})
	zlog.Debug().Msgf("static provider config: tracks=%d", len(tracks))

	return &StaticProvider{tracks: tracks}, nil
}

// Tracks returns a copy of the configured tracks.
func (p *StaticProvider) Tracks(ctx context.Context) ([]track.Track, error) {
	out := make([]track.Track, len(p.tracks))
	copy(out, p.tracks)
	return out, nil
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}
