package bus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < 3; i++ {
		if err := q.TryPublish(Event{Kind: EventMessage, ConnID: i}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		e := <-q.Events()
		if e.ConnID != i {
			t.Fatalf("order mismatch! should be %d but got %d", i, e.ConnID)
		}
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryPublish(Event{Kind: EventMessage}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	err := q.TryPublish(Event{Kind: EventMessage})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("should be ErrQueueFull, got %v", err)
	}
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	if err := q.TryPublish(Event{Kind: EventMessage}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("should be ErrQueueClosed, got %v", err)
	}
	if err := q.Publish(context.Background(), Event{Kind: EventClosed}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("should be ErrQueueClosed, got %v", err)
	}
}

func TestQueuePublishBlocksUntilConsumed(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryPublish(Event{Kind: EventMessage, ConnID: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Publish(context.Background(), Event{Kind: EventClosed, ConnID: 2})
	}()

	select {
	case err := <-done:
		t.Fatalf("publish should block on a full queue, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	first := <-q.Events()
	if first.ConnID != 1 {
		t.Fatalf("order mismatch! should be %d but got %d", 1, first.ConnID)
	}
	if err := <-done; err != nil {
		t.Fatalf("publish: %v", err)
	}
	second := <-q.Events()
	if second.Kind != EventClosed {
		t.Fatalf("kind mismatch! should be %s but got %s", EventClosed, second.Kind)
	}
}

func TestQueuePublishHonorsContext(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryPublish(Event{Kind: EventMessage}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Publish(ctx, Event{Kind: EventClosed}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("should be context deadline, got %v", err)
	}
}
