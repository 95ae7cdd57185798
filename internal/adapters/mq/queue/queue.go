// Package queue buffers prediction events between the request path and
// the publisher. Enqueue never blocks: a full queue drops the event.
package queue

import (
	"context"
	"sync"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Event is the payload flowing through the queue.
type Event = model.PredictionEvent

// Queue is what the service needs from an event buffer.
type Queue interface {
	// Enqueue adds an event; ErrFull or ErrClosed when it was dropped.
	Enqueue(ctx context.Context, e Event) error
	// Events returns the receive side. It is closed by Close once drained.
	Events() <-chan Event
	Len() int
	Close() error
}

// InMemoryQueue is a Queue over one buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateEventQueueSize(0)
	return q
}

// Enqueue adds an event without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: events travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.events <- e:
		metrics.UpdateEventQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordEventDropped()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Events returns the channel consumers range over.
func (q *InMemoryQueue) Events() <-chan Event {
	return q.events
}

// Len returns the number of buffered events.
func (q *InMemoryQueue) Len() int {
	n := len(q.events)
	metrics.UpdateEventQueueSize(n)
	return n
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting events. Buffered events stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}
