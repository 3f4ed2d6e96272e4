package playback

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is the reference clock rate of 30 ticks per second.
const DefaultTickInterval = time.Second / 30

// Clock drives playback progress while playing.
type Clock interface {
	// Start begins calling tick with the elapsed increment on every firing.
	// Any previously started run is cancelled first.
	Start(tick func(delta time.Duration))
	// Stop cancels the current run. It is idempotent.
	Stop()
	// Interval returns the nominal tick interval.
	Interval() time.Duration
}

// TickerClock is a Clock backed by time.Ticker.
type TickerClock struct {
	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
}

// NewTickerClock creates a ticker clock. A non-positive interval selects
// DefaultTickInterval.
func NewTickerClock(interval time.Duration) *TickerClock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickerClock{interval: interval}
}

// Start starts a new ticker goroutine, cancelling the previous one.
func (c *TickerClock) Start(tick func(delta time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	interval := c.interval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A tick racing with cancellation is dropped here; the engine
				// also discards ticks from stale generations.
				if ctx.Err() != nil {
					return
				}
				tick(interval)
			}
		}
	}()
}

// Stop cancels the ticker goroutine if one is running.
func (c *TickerClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Interval returns the tick interval.
func (c *TickerClock) Interval() time.Duration {
	return c.interval
}

// ManualClock is a deterministic Clock advanced explicitly by the caller.
type ManualClock struct {
	mu       sync.Mutex
	interval time.Duration
	tick     func(time.Duration)
	starts   int
}

// NewManualClock creates a manual clock whose Tick advances by interval.
func NewManualClock(interval time.Duration) *ManualClock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &ManualClock{interval: interval}
}

// Start records tick as the active callback.
func (c *ManualClock) Start(tick func(delta time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = tick
	c.starts++
}

// Stop clears the active callback.
func (c *ManualClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = nil
}

// Interval returns the tick interval.
func (c *ManualClock) Interval() time.Duration {
	return c.interval
}

// Running reports whether a callback is active.
func (c *ManualClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick != nil
}

// Starts returns how many times Start was called.
func (c *ManualClock) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// Advance fires a single tick of delta. It returns false when stopped.
func (c *ManualClock) Advance(delta time.Duration) bool {
	c.mu.Lock()
	tick := c.tick
	c.mu.Unlock()

	if tick == nil {
		return false
	}
	tick(delta)
	return true
}

// Tick fires n ticks of the clock interval, stopping early if the clock stops.
// It returns the number of ticks delivered.
func (c *ManualClock) Tick(n int) int {
	for i := 0; i < n; i++ {
		if !c.Advance(c.interval) {
			return i
		}
	}
	return n
}
