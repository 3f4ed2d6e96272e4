// Package notification provides ordered fan-out of state snapshots to observers.
package notification

import (
	"sync"

	"github.com/google/uuid"
)

// SubscriptionID identifies a subscription returned by Subscribe.
type SubscriptionID string

// Observer receives published values.
type Observer[T any] func(T)

// subscription represents a subscriber's subscription.
type subscription[T any] struct {
	id       SubscriptionID
	observer Observer[T]
}

// Manager manages subscriptions and publishes values to them through a
// Dispatcher. Values reach every observer in publish order.
type Manager[T any] struct {
	mu            sync.RWMutex
	subscriptions []*subscription[T] // in subscription order
	dispatcher    Dispatcher
	sequenceNo    uint64
	closed        bool
}

// NewManager creates a new manager delivering through dispatcher.
// A nil dispatcher delivers inline.
func NewManager[T any](dispatcher Dispatcher) *Manager[T] {
	if dispatcher == nil {
		dispatcher = Inline()
	}
	return &Manager[T]{
		subscriptions: make([]*subscription[T], 0),
		dispatcher:    dispatcher,
	}
}

// Subscribe adds a new subscription and returns its ID.
func (m *Manager[T]) Subscribe(observer Observer[T]) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := SubscriptionID(uuid.New().String())
	m.subscriptions = append(m.subscriptions, &subscription[T]{
		id:       id,
		observer: observer,
	})
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
// Values already queued are not delivered to a removed observer.
func (m *Manager[T]) Unsubscribe(id SubscriptionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscriptions {
		if sub.id == id {
			m.subscriptions = append(m.subscriptions[:i:i], m.subscriptions[i+1:]...)
			return
		}
	}
}

// Publish hands value to the dispatcher for delivery to all observers.
// The returned sequence number increases by one per published value.
func (m *Manager[T]) Publish(value T) uint64 {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0
	}
	m.sequenceNo++
	seq := m.sequenceNo
	m.mu.Unlock()

	m.dispatcher.Dispatch(func() {
		m.deliver(value)
	})
	return seq
}

// deliver calls every current observer. The subscriber list is copied so
// observers may subscribe or unsubscribe while being called.
func (m *Manager[T]) deliver(value T) {
	m.mu.RLock()
	subs := make([]*subscription[T], len(m.subscriptions))
	copy(subs, m.subscriptions)
	m.mu.RUnlock()

	for _, sub := range subs {
		if !m.isSubscribed(sub.id) {
			continue
		}
		sub.observer(value)
	}
}

func (m *Manager[T]) isSubscribed(id SubscriptionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subscriptions {
		if sub.id == id {
			return true
		}
	}
	return false
}

// SequenceNo returns the sequence number of the last published value.
func (m *Manager[T]) SequenceNo() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager[T]) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions and stops accepting new values.
// It does not close the dispatcher, which may be shared.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subscriptions = make([]*subscription[T], 0)
}
