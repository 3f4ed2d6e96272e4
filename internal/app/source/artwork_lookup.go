package source

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// ArtworkLookup finds album art for a track by name.
type ArtworkLookup interface {
	GetAlbumArtURL(ctx context.Context, trackName, artistName string) (string, error)
}

// FillMissingArtwork returns a copy of tracks where every track without
// artwork gets a remote reference found by lookup. Lookup failures leave the
// track without artwork.
func FillMissingArtwork(ctx context.Context, tracks []track.Track, lookup ArtworkLookup) []track.Track {
	out := make([]track.Track, len(tracks))
	copy(out, tracks)
	if lookup == nil {
		return out
	}

	filled := 0
	for i, t := range out {
		if t.Artwork != nil || t.Artist == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		u, err := lookup.GetAlbumArtURL(ctx, t.Title, t.Artist)
		if err != nil {
			zlog.Debug().Msgf("no artwork found: title=%s artist=%s error=%v", t.Title, t.Artist, err)
			continue
		}
		out[i] = track.New(t.Title, t.Artist, t.Duration, track.Remote(u))
		filled++
	}

	if filled > 0 {
		zlog.Info().Msgf("filled missing artwork: tracks=%d", filled)
	}
	return out
}
