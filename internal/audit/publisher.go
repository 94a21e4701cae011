package audit

import (
	"context"
	"time"
)

// Publisher writes audit events straight to the store.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	return p.store.Append(ctx, base)
}

// QueuePublisher hands events to a Worker through a buffered channel so
// request handling never waits on the store.
type QueuePublisher struct {
	queue chan Event
}

// NewQueuePublisher returns the publisher and the channel a Worker drains.
func NewQueuePublisher(size int) (*QueuePublisher, <-chan Event) {
	q := make(chan Event, size)
	return &QueuePublisher{queue: q}, q
}

// Emit blocks only while the queue is full, and gives up when ctx is done.
func (p *QueuePublisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	select {
	case p.queue <- base:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
