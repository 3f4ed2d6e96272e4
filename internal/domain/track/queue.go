package track

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrEmptyQueue is returned when a queue is built from zero tracks.
var ErrEmptyQueue = errors.New("queue is empty")

// Queue is an ordered, indexable sequence of tracks.
// The zero value is an empty queue.
type Queue struct {
	tracks []Track
}

// NewQueue creates a queue holding a copy of tracks.
func NewQueue(tracks []Track) (Queue, error) {
	if len(tracks) == 0 {
		return Queue{}, ErrEmptyQueue
	}
	q := Queue{tracks: make([]Track, len(tracks))}
	copy(q.tracks, tracks)
	return q, nil
}

// Len returns the number of tracks.
func (q Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// At returns the track at index i. It panics when i is out of range.
func (q Queue) At(i int) Track {
	return q.tracks[i]
}

// Tracks returns a copy of the tracks.
func (q Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// TotalDuration returns the total duration of all tracks.
func (q Queue) TotalDuration() time.Duration {
	return lo.SumBy(q.tracks, func(t Track) time.Duration {
		return t.Duration
	})
}
