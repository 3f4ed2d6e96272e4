// Package artwork resolves track artwork references into image bytes.
package artwork

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// ErrNotFound is returned when an artwork reference cannot be located.
var ErrNotFound = errors.New("artwork not found")

// Image is resolved artwork.
type Image struct {
	Ref         *track.ArtworkRef // Nil for the placeholder
	ContentType string
	Data        []byte
	Placeholder bool
}

// Resolver turns an artwork reference into an image.
type Resolver interface {
	Resolve(ctx context.Context, ref *track.ArtworkRef) (Image, error)
}

// placeholderSVG is shown when a track has no artwork or it cannot be loaded.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="512" height="512" viewBox="0 0 512 512">` +
	`<rect width="512" height="512" fill="#2b2b2b"/>` +
	`<circle cx="256" cy="256" r="150" fill="none" stroke="#8a8a8a" stroke-width="24"/>` +
	`<circle cx="256" cy="256" r="28" fill="#8a8a8a"/>` +
	`</svg>`

// Placeholder returns the default artwork image.
func Placeholder() Image {
	return Image{
		ContentType: "image/svg+xml",
		Data:        []byte(placeholderSVG),
		Placeholder: true,
	}
}
