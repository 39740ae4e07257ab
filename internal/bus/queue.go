package bus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// EventKind tags a connection event.
type EventKind uint8

const (
	EventOpened EventKind = iota + 1
	EventDialFailed
	EventMessage
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventDialFailed:
		return "dialFailed"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is the unit every connection pushes onto the inbound queue. Events
// from one connection arrive in delivery order; nothing is guaranteed across
// connections.
type Event struct {
	Kind    EventKind
	ConnID  int
	Session uuid.UUID
	Payload []byte
	Err     error
	At      time.Time
}

// Queue is a bounded, non-blocking event queue with a single consumer.
type Queue struct {
	ch     chan Event
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPublish enqueues an event without blocking. Callers drop the event when
// the queue is full.
func (q *Queue) TryPublish(e Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish blocks until the event is accepted or ctx ends. Lifecycle events
// use this path so a full queue cannot lose an open or close.
func (q *Queue) Publish(ctx context.Context, e Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the consumer side of the queue.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Close stops the queue from accepting new events. The channel itself stays
// open; producers racing Close may still land an event, which the consumer
// is free to discard.
func (q *Queue) Close() {
	atomic.StoreUint32(&q.closed, 1)
}
