// Package playback provides the simulated playback engine.
package playback

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/nowplaying/internal/domain/track"
)

// RepeatMode represents the queue repeat mode.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // No looping
	RepeatOne                   // Restart the current track on every advance
	RepeatAll                   // Wrap around the queue in both directions
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the Off → All → One → Off cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return RepeatOff, nil
	case "one":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	default:
		return RepeatOff, errors.Newf("unknown repeat mode: %q", s)
	}
}

// PlaybackState is an immutable snapshot of the engine.
type PlaybackState struct {
	Track       *track.Track  // Current track, nil when idle or exhausted
	Index       int           // Queue index of Track, -1 when Track is nil
	IsPlaying   bool          // Whether the clock is advancing CurrentTime
	CurrentTime time.Duration // Elapsed time within Track
	Duration    time.Duration // Track.Duration, 0 when Track is nil
	RepeatMode  RepeatMode
}

// HasTrack returns true if there is a current track.
func (s PlaybackState) HasTrack() bool {
	return s.Track != nil
}

// position is the engine's queue position: either idle or active on a track.
type position interface {
	isPosition()
}

// idle means no current track: nothing loaded yet, or the queue was exhausted.
type idle struct{}

// active means a track is current.
type active struct {
	index   int
	elapsed time.Duration
}

func (idle) isPosition()   {}
func (active) isPosition() {}
