// Package track provides the Track and Queue domain entities.
package track

import "time"

// ArtworkKind identifies where a piece of artwork lives.
type ArtworkKind int

const (
	ArtworkLocal  ArtworkKind = iota // Bundled asset referenced by name
	ArtworkRemote                    // Remote image referenced by URL
)

// String returns the string representation of the artwork kind.
func (k ArtworkKind) String() string {
	switch k {
	case ArtworkLocal:
		return "local"
	case ArtworkRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ArtworkRef is an opaque reference to track artwork.
// Resolving it is left to an artwork resolver.
type ArtworkRef struct {
	Kind  ArtworkKind
	Value string // Asset name or URL depending on Kind
}

// LocalAsset returns a reference to a bundled asset.
func LocalAsset(name string) *ArtworkRef {
	return &ArtworkRef{Kind: ArtworkLocal, Value: name}
}

// Remote returns a reference to a remote image.
func Remote(url string) *ArtworkRef {
	return &ArtworkRef{Kind: ArtworkRemote, Value: url}
}

// String returns "kind:value".
func (r *ArtworkRef) String() string {
	if r == nil {
		return "none"
	}
	return r.Kind.String() + ":" + r.Value
}

// SameArtwork reports whether two optional references point at the same artwork.
func SameArtwork(a, b *ArtworkRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Track represents a playable track. Tracks are values and are never mutated
// after construction.
type Track struct {
	Title    string        // Track title
	Artist   string        // Artist line as displayed
	Duration time.Duration // Track duration
	Artwork  *ArtworkRef   // Optional artwork reference
}

// New creates a track.
func New(title, artist string, duration time.Duration, artwork *ArtworkRef) Track {
	return Track{
		Title:    title,
		Artist:   artist,
		Duration: duration,
		Artwork:  artwork,
	}
}

// Equal reports whether two tracks carry the same data.
func (t Track) Equal(o Track) bool {
	return t.Title == o.Title &&
		t.Artist == o.Artist &&
		t.Duration == o.Duration &&
		SameArtwork(t.Artwork, o.Artwork)
}
