package obs

import (
	"sync/atomic"
	"time"
)

// ConnStats holds per-connection counters.
type ConnStats struct {
	messages      atomic.Int64
	reconnects    atomic.Int64
	lastMessageMs atomic.Int64
}

// PoolStats aggregates counters across all connections. All methods are safe
// for concurrent use; the stats are never persisted.
type PoolStats struct {
	conns   []ConnStats
	active  atomic.Int64
	metrics *Metrics

	accountUpdates  atomic.Int64
	pricesApplied   atomic.Int64
	pricesDiscarded atomic.Int64
	parseErrors     atomic.Int64
	valuationErrors atomic.Int64
	persistErrors   atomic.Int64
	lowestUpdates   atomic.Int64
	queueDrops      atomic.Int64
}

// NewPoolStats builds stats for a fixed number of connections. metrics may be
// nil when the prometheus listener is disabled.
func NewPoolStats(connCount int, metrics *Metrics) *PoolStats {
	return &PoolStats{
		conns:   make([]ConnStats, connCount),
		metrics: metrics,
	}
}

// SetActive records the current number of connections in receiving or
// connected state.
func (s *PoolStats) SetActive(n int) {
	s.active.Store(int64(n))
	if s.metrics != nil {
		s.metrics.activeConnections.Set(float64(n))
	}
}

// RecordMessage counts one inbound message on a connection.
func (s *PoolStats) RecordMessage(connID int, at time.Time) {
	if connID < 0 || connID >= len(s.conns) {
		return
	}
	s.conns[connID].messages.Add(1)
	s.conns[connID].lastMessageMs.Store(at.UnixMilli())
	if s.metrics != nil {
		s.metrics.messagesTotal.Add(1)
	}
}

// RecordReconnect counts one reconnect attempt on a connection.
func (s *PoolStats) RecordReconnect(connID int) {
	if connID < 0 || connID >= len(s.conns) {
		return
	}
	s.conns[connID].reconnects.Add(1)
	if s.metrics != nil {
		s.metrics.reconnectsTotal.Add(1)
	}
}

func (s *PoolStats) RecordAccountUpdate() {
	s.accountUpdates.Add(1)
	if s.metrics != nil {
		s.metrics.accountUpdatesTotal.Add(1)
	}
}

func (s *PoolStats) RecordPriceApplied() {
	s.pricesApplied.Add(1)
	if s.metrics != nil {
		s.metrics.pricesAppliedTotal.Add(1)
	}
}

func (s *PoolStats) RecordPriceDiscarded() {
	s.pricesDiscarded.Add(1)
}

func (s *PoolStats) RecordParseError() {
	s.parseErrors.Add(1)
	if s.metrics != nil {
		s.metrics.parseErrorsTotal.Add(1)
	}
}

func (s *PoolStats) RecordValuationError() {
	s.valuationErrors.Add(1)
	if s.metrics != nil {
		s.metrics.valuationErrorsTotal.Add(1)
	}
}

func (s *PoolStats) RecordPersistError() {
	s.persistErrors.Add(1)
	if s.metrics != nil {
		s.metrics.persistErrorsTotal.Add(1)
	}
}

// RecordLowest counts one persisted new-low for an account.
func (s *PoolStats) RecordLowest(account string, total float64) {
	s.lowestUpdates.Add(1)
	if s.metrics != nil {
		s.metrics.lowestValue.WithLabelValues(account).Set(total)
	}
}

// RecordAccountValue mirrors the latest total to the metrics gauge.
func (s *PoolStats) RecordAccountValue(account string, total float64) {
	if s.metrics != nil {
		s.metrics.accountValue.WithLabelValues(account).Set(total)
	}
}

// RecordQueueDrop counts one event dropped because the inbound queue was
// full.
func (s *PoolStats) RecordQueueDrop() {
	s.queueDrops.Add(1)
}

// ConnMessages returns the message count for one connection.
func (s *PoolStats) ConnMessages(connID int) int64 {
	if connID < 0 || connID >= len(s.conns) {
		return 0
	}
	return s.conns[connID].messages.Load()
}

// TotalMessages sums message counts across connections.
func (s *PoolStats) TotalMessages() int64 {
	var total int64
	for i := range s.conns {
		total += s.conns[i].messages.Load()
	}
	return total
}

// Snapshot captures all counters for the periodic stats log line.
func (s *PoolStats) Snapshot() map[string]any {
	perConn := make([]map[string]int64, len(s.conns))
	for i := range s.conns {
		perConn[i] = map[string]int64{
			"messages":   s.conns[i].messages.Load(),
			"reconnects": s.conns[i].reconnects.Load(),
			"lastMsgMs":  s.conns[i].lastMessageMs.Load(),
		}
	}
	return map[string]any{
		"connections":     len(s.conns),
		"active":          s.active.Load(),
		"totalMessages":   s.TotalMessages(),
		"accountUpdates":  s.accountUpdates.Load(),
		"pricesApplied":   s.pricesApplied.Load(),
		"pricesDiscarded": s.pricesDiscarded.Load(),
		"parseErrors":     s.parseErrors.Load(),
		"valuationErrors": s.valuationErrors.Load(),
		"persistErrors":   s.persistErrors.Load(),
		"lowestUpdates":   s.lowestUpdates.Load(),
		"queueDrops":      s.queueDrops.Load(),
		"perConnection":   perConn,
	}
}
