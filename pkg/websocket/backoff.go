package websocket

import (
	"math/rand"
	"time"
)

// Backoff computes reconnect delays: Base doubled (or scaled by Factor) per
// attempt, optionally capped at Max and spread by Jitter.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// Next returns the delay before the given attempt, starting at attempt 1.
func (b Backoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2
	}

	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if b.Max > 0 && delay >= float64(b.Max) {
			delay = float64(b.Max)
			break
		}
	}
	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.Jitter > 0 {
		spread := delay * b.Jitter
		delay = delay - spread/2 + rand.Float64()*spread
	}
	return time.Duration(delay)
}
