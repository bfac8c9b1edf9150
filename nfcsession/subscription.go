package nfcsession

import (
	"log"
	"sync"
)

// DefaultSubscriptionBuffer is the event buffer of a session subscription.
const DefaultSubscriptionBuffer = 16

// Subscription carries hardware events to a single consumer. Close ends
// delivery: later publishes are dropped and events still buffered are
// skipped by Next.
type Subscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewSubscription(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	return &Subscription{ch: make(chan Event, buffer)}
}

// Publish queues ev. It never blocks and reports whether ev was queued.
func (s *Subscription) Publish(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		log.Printf("[session] Subscription full, dropping %s event", ev.Kind)
		return false
	}
}

// Next blocks until an event is available. It returns false once the
// subscription is closed.
func (s *Subscription) Next() (Event, bool) {
	for ev := range s.ch {
		if s.Closed() {
			continue
		}
		return ev, true
	}
	return Event{}, false
}

func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
