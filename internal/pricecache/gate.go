package pricecache

import "time"

// Gate throttles broadcast price updates to one applied update per window.
// Updates arriving faster are discarded, not queued.
type Gate struct {
	window time.Duration
	last   time.Time
}

// NewGate builds a gate. A non-positive window lets every update through.
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window}
}

// Allow reports whether an update arriving at now should be applied, and
// marks the window consumed when it is.
func (g *Gate) Allow(now time.Time) bool {
	if g.window <= 0 {
		return true
	}
	if !g.last.IsZero() && now.Sub(g.last) < g.window {
		return false
	}
	g.last = now
	return true
}
