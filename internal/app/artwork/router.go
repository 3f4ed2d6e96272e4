package artwork

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// Router dispatches references to the resolver for their kind.
// Missing artwork and resolution failures yield the placeholder; only
// cancellation is reported as an error.
type Router struct {
	local  Resolver
	remote Resolver
}

// NewRouter creates a router. Either resolver may be nil, in which case
// references of that kind get the placeholder.
func NewRouter(local, remote Resolver) *Router {
	return &Router{local: local, remote: remote}
}

// Resolve implements Resolver.
func (r *Router) Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error) {
	if ref == nil {
		return Placeholder(), nil
	}

	var resolver Resolver
	switch ref.Kind {
	case track.ArtworkLocal:
		resolver = r.local
	case track.ArtworkRemote:
		resolver = r.remote
	}
	if resolver == nil {
		zlog.Warn().Msgf("no resolver for artwork: %s", ref)
		return Placeholder(), nil
	}

	img, err := resolver.Resolve(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return Image{}, errors.Wrap(ctx.Err(), "artwork resolution canceled")
		}
		zlog.Warn().Msgf("artwork unavailable, using placeholder: ref=%s error=%v", ref, err)
		return Placeholder(), nil
	}
	return img, nil
}
