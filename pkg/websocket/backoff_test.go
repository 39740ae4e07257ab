package websocket

import (
	"testing"
	"time"
)

func TestBackoffDoubles(t *testing.T) {
	b := Backoff{Base: 5 * time.Second, Factor: 2}

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		80 * time.Second,
	}
	for attempt := 1; attempt <= len(want); attempt++ {
		got := b.Next(attempt)
		if got != want[attempt-1] {
			t.Fatalf("delay mismatch for attempt %d! should be %s but got %s", attempt, want[attempt-1], got)
		}
	}
}

func TestBackoffCap(t *testing.T) {
	b := Backoff{Base: 5 * time.Second, Max: 15 * time.Second, Factor: 2}
	if got := b.Next(4); got != 15*time.Second {
		t.Fatalf("capped delay mismatch! should be 15s but got %s", got)
	}
}

func TestBackoffDefaults(t *testing.T) {
	var b Backoff
	if got := b.Next(0); got != time.Second {
		t.Fatalf("zero-value delay mismatch! should be 1s but got %s", got)
	}
	if got := b.Next(2); got != 2*time.Second {
		t.Fatalf("zero-value second delay mismatch! should be 2s but got %s", got)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := Backoff{Base: 10 * time.Second, Factor: 2, Jitter: 0.2}
	for i := 0; i < 50; i++ {
		got := b.Next(1)
		if got < 9*time.Second || got > 11*time.Second {
			t.Fatalf("jittered delay out of bounds: %s", got)
		}
	}
}
