package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/domain/track"
)

// ErrEmptyQueue is returned by Load when given zero tracks.
var ErrEmptyQueue = errors.Wrap(track.ErrEmptyQueue, "cannot load")

// DefaultBackSkipThreshold is how far into a track SkipPrevious restarts it
// instead of moving to the previous track.
const DefaultBackSkipThreshold = 3 * time.Second

const (
	advanceNext     = 1
	advancePrevious = -1
)

// Config holds controller configuration.
type Config struct {
	BackSkipThreshold time.Duration           // Zero selects DefaultBackSkipThreshold
	RepeatMode        RepeatMode              // Initial repeat mode
	Clock             Clock                   // Nil selects a TickerClock at DefaultTickInterval
	Dispatcher        notification.Dispatcher // Nil selects a Serial dispatcher owned by the controller
}

// Controller is the playback state machine. Commands and clock ticks are
// serialised by a single mutex; snapshots are published in mutation order.
type Controller struct {
	mu sync.Mutex

	queue      track.Queue
	pos        position
	isPlaying  bool
	repeatMode RepeatMode

	// Clock
	clock    Clock
	clockGen uint64 // Incremented on every start/stop; stale ticks are dropped

	config Config

	// Snapshot delivery
	notification   *notification.Manager[PlaybackState]
	ownsDispatcher bool
	dispatcher     notification.Dispatcher
	closed         bool
}

// NewController creates a new playback controller.
func NewController(config Config) *Controller {
	if config.BackSkipThreshold <= 0 {
		config.BackSkipThreshold = DefaultBackSkipThreshold
	}

	clock := config.Clock
	if clock == nil {
		clock = NewTickerClock(DefaultTickInterval)
	}

	dispatcher := config.Dispatcher
	owns := false
	if dispatcher == nil {
		dispatcher = notification.NewSerial()
		owns = true
	}

	return &Controller{
		pos:            idle{},
		repeatMode:     config.RepeatMode,
		clock:          clock,
		config:         config,
		notification:   notification.NewManager[PlaybackState](dispatcher),
		ownsDispatcher: owns,
		dispatcher:     dispatcher,
	}
}

// Subscribe registers an observer for state snapshots.
func (c *Controller) Subscribe(observer func(PlaybackState)) notification.SubscriptionID {
	return c.notification.Subscribe(observer)
}

// Unsubscribe removes an observer.
func (c *Controller) Unsubscribe(id notification.SubscriptionID) {
	c.notification.Unsubscribe(id)
}

// Load replaces the queue and positions on its first track, paused.
// On error the previous state is left untouched.
func (c *Controller) Load(tracks []track.Track) error {
	q, err := track.NewQueue(tracks)
	if err != nil {
		return ErrEmptyQueue
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopClockLocked()
	c.queue = q
	c.pos = active{index: 0}
	c.isPlaying = false

	zlog.Debug().Msgf("playback: loaded queue: tracks=%d total=%v", q.Len(), q.TotalDuration())
	c.emitLocked(ReasonLoaded)
	return nil
}

// Play starts playback, restarting from the first track when the queue was
// exhausted. It does nothing before a queue is loaded.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playLocked()
}

func (c *Controller) playLocked() {
	if c.queue.IsEmpty() {
		return
	}
	if _, ok := c.pos.(idle); ok {
		c.pos = active{index: 0}
	}
	c.isPlaying = true
	c.emitLocked(ReasonPlay)
	c.startClockLocked()
}

// Pause stops playback at the current position.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Controller) pauseLocked() {
	if c.queue.IsEmpty() {
		return
	}
	c.isPlaying = false
	c.emitLocked(ReasonPause)
	c.stopClockLocked()
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isPlaying {
		c.pauseLocked()
	} else {
		c.playLocked()
	}
}

// Seek moves within the current track, clamping to [0, duration].
// Play state and clock are unaffected.
func (c *Controller) Seek(to time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.pos.(active)
	if !ok {
		return
	}
	duration := c.queue.At(a.index).Duration
	a.elapsed = max(0, min(to, duration))
	c.pos = a
	c.emitLocked(ReasonSeek)
}

// SkipNext advances to the next track according to the repeat mode.
func (c *Controller) SkipNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked(advanceNext)
}

// SkipPrevious restarts the current track or moves to the previous one.
func (c *Controller) SkipPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked(advancePrevious)
}

// ToggleRepeatMode cycles Off → All → One → Off.
func (c *Controller) ToggleRepeatMode() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeatMode = c.repeatMode.Next()
	c.emitLocked(ReasonRepeatMode)
}

// State returns the current snapshot.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Queue returns the loaded queue.
func (c *Controller) Queue() track.Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

// Close stops the clock and releases delivery resources.
// Pending snapshots are delivered before Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopClockLocked()
	c.mu.Unlock()

	if c.ownsDispatcher {
		c.dispatcher.Close()
	}
	c.notification.Close()
}

// advanceLocked implements skip and completion navigation.
// Must be called with lock held.
func (c *Controller) advanceLocked(delta int) {
	a, ok := c.pos.(active)
	if !ok || c.queue.IsEmpty() {
		return
	}

	if delta == advancePrevious && a.elapsed > c.config.BackSkipThreshold {
		c.restartLocked(a)
		return
	}

	n := c.queue.Len()
	switch c.repeatMode {
	case RepeatOne:
		c.restartLocked(a)

	case RepeatAll:
		c.pos = active{index: (a.index + delta + n) % n}
		c.emitLocked(ReasonTrackChanged)

	default:
		next := a.index + delta
		switch {
		case next < 0:
			c.restartLocked(a)
		case next >= n:
			c.exhaustLocked()
		default:
			c.pos = active{index: next}
			c.emitLocked(ReasonTrackChanged)
		}
	}
}

func (c *Controller) restartLocked(a active) {
	a.elapsed = 0
	c.pos = a
	c.emitLocked(ReasonRestart)
}

// exhaustLocked enters the terminal state after the last track.
// Repeat mode is reset to Off as part of the transition.
func (c *Controller) exhaustLocked() {
	c.pos = idle{}
	c.isPlaying = false
	c.repeatMode = RepeatOff
	c.stopClockLocked()
	c.emitLocked(ReasonExhausted)
}

// onTick handles a clock firing for generation gen.
func (c *Controller) onTick(gen uint64, delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.clockGen || !c.isPlaying {
		return
	}
	a, ok := c.pos.(active)
	if !ok {
		return
	}

	duration := c.queue.At(a.index).Duration
	if a.elapsed+delta >= duration {
		zlog.Debug().Msgf("playback: track completed: index=%d duration=%v", a.index, duration)
		c.advanceLocked(advanceNext)
		return
	}
	a.elapsed += delta
	c.pos = a
	c.emitLocked(ReasonTick)
}

// startClockLocked starts the clock under a new generation.
// Must be called with lock held.
func (c *Controller) startClockLocked() {
	c.clockGen++
	gen := c.clockGen
	c.clock.Start(func(delta time.Duration) {
		c.onTick(gen, delta)
	})
}

// stopClockLocked stops the clock and invalidates outstanding ticks.
// Must be called with lock held.
func (c *Controller) stopClockLocked() {
	c.clockGen++
	c.clock.Stop()
}

// snapshotLocked builds the public snapshot.
// Must be called with lock held.
func (c *Controller) snapshotLocked() PlaybackState {
	s := PlaybackState{
		Index:      -1,
		IsPlaying:  c.isPlaying,
		RepeatMode: c.repeatMode,
	}
	if a, ok := c.pos.(active); ok && !c.queue.IsEmpty() {
		t := c.queue.At(a.index)
		s.Track = &t
		s.Index = a.index
		s.CurrentTime = a.elapsed
		s.Duration = t.Duration
	}
	return s
}

// emitLocked publishes the current snapshot.
// Must be called with lock held so snapshots are published in mutation order.
func (c *Controller) emitLocked(reason Reason) {
	s := c.snapshotLocked()
	if reason != ReasonTick {
		zlog.Debug().Msgf("playback: state changed: reason=%s index=%d playing=%t time=%v repeat=%s",
			reason, s.Index, s.IsPlaying, s.CurrentTime, s.RepeatMode)
	}
	c.notification.Publish(s)
}
