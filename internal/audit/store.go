package audit

import (
	"context"
	"sync"
)

// DefaultRetention is how many events InMemoryStore keeps when no capacity
// is given.
const DefaultRetention = 10000

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// InMemoryStore keeps the most recent events in a fixed-size ring; once full,
// each new event evicts the oldest one.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	next   int
	full   bool
}

type StoreOption func(*InMemoryStore)

// WithRetention caps the number of events kept. Non-positive values are ignored.
func WithRetention(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.events = make([]Event, n)
		}
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{events: make([]Event, DefaultRetention)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = event
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// ListByUser returns the retained events for userID, oldest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	s.each(func(e Event) {
		if e.UserID == userID {
			out = append(out, e)
		}
	})
	return out, nil
}

// each visits retained events oldest first. Must be called with s.mu held.
func (s *InMemoryStore) each(fn func(Event)) {
	if s.full {
		for _, e := range s.events[s.next:] {
			fn(e)
		}
	}
	for _, e := range s.events[:s.next] {
		fn(e)
	}
}
