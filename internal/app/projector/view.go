// Package projector derives display-ready view state from playback snapshots.
package projector

import (
	"fmt"
	"math"
	"time"

	"github.com/osa030/nowplaying/internal/app/playback"
	"github.com/osa030/nowplaying/internal/domain/track"
)

// ViewState is the formatted, renderer-independent player state.
// It is comparable so updates can be equality-gated.
type ViewState struct {
	Title        string
	Subtitle     string
	Progress     float64 // 0..1
	ElapsedText  string
	DurationText string
	IsPlaying    bool
	RepeatMode   playback.RepeatMode
	IsLiked      bool
	CurrentTime  time.Duration
	Duration     time.Duration
}

// EmptyViewState is the view before any snapshot was applied.
var EmptyViewState = ViewState{
	ElapsedText:  "0:00",
	DurationText: "0:00",
	RepeatMode:   playback.RepeatOff,
}

// ArtworkRequest asks an artwork resolver for the current track's artwork.
// A nil Ref requests the default placeholder.
type ArtworkRequest struct {
	Ref *track.ArtworkRef
}

// Derive computes the view for a snapshot and liked flag.
func Derive(s playback.PlaybackState, liked bool) ViewState {
	v := ViewState{
		ElapsedText:  FormatClock(s.CurrentTime),
		DurationText: FormatClock(s.Duration),
		IsPlaying:    s.IsPlaying,
		RepeatMode:   s.RepeatMode,
		IsLiked:      liked,
		CurrentTime:  s.CurrentTime,
		Duration:     s.Duration,
	}
	if s.Track != nil {
		v.Title = s.Track.Title
		v.Subtitle = s.Track.Artist
	}
	if s.Duration > 0 {
		v.Progress = float64(s.CurrentTime) / float64(s.Duration)
	}
	return v
}

// FormatClock formats d as m:ss after rounding to the nearest second.
func FormatClock(d time.Duration) string {
	total := int64(math.Round(d.Seconds()))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
