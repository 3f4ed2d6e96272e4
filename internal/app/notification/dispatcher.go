package notification

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Dispatcher runs delivery functions in the order they were dispatched.
// It is the delivery context observers are called on.
type Dispatcher interface {
	// Dispatch schedules fn. It must not block on fn's completion unless the
	// dispatcher is synchronous.
	Dispatch(fn func())
	// Close stops the dispatcher after pending functions ran.
	Close()
}

type inlineDispatcher struct{}

// Inline returns a dispatcher that runs fn synchronously in the caller.
// Observers delivered inline must not call back into the publisher.
func Inline() Dispatcher {
	return inlineDispatcher{}
}

func (inlineDispatcher) Dispatch(fn func()) { fn() }
func (inlineDispatcher) Close()             {}

// Serial runs dispatched functions one at a time on a dedicated goroutine.
// The backlog is unbounded so Dispatch never blocks and nothing is dropped.
type Serial struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewSerial creates and starts a serial dispatcher.
func NewSerial() *Serial {
	s := &Serial{
		pending: make([]func(), 0),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Dispatch enqueues fn. Calls after Close are ignored.
func (s *Serial) Dispatch(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close drains the backlog and waits for the loop to exit.
// It must not be called from inside a dispatched function.
func (s *Serial) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = make([]func(), 0)
		closed := s.closed
		s.mu.Unlock()

		for _, fn := range batch {
			s.run(fn)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-s.wake
	}
}

// run isolates observer panics so one bad observer cannot stop delivery.
func (s *Serial) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("notification: observer panicked: %v", r)
		}
	}()
	fn()
}
