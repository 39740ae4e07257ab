package obs

import (
	"testing"
	"time"
)

func TestPoolStatsCounters(t *testing.T) {
	s := NewPoolStats(2, nil)

	now := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)
	s.RecordMessage(0, now)
	s.RecordMessage(0, now.Add(time.Second))
	s.RecordMessage(1, now)
	s.RecordReconnect(1)
	s.RecordAccountUpdate()
	s.RecordPriceApplied()
	s.RecordPriceDiscarded()
	s.RecordLowest("0xabc", 1240)
	s.SetActive(2)

	if got := s.ConnMessages(0); got != 2 {
		t.Fatalf("conn 0 messages mismatch! should be %d but got %d", 2, got)
	}
	if got := s.ConnMessages(1); got != 1 {
		t.Fatalf("conn 1 messages mismatch! should be %d but got %d", 1, got)
	}
	if got := s.TotalMessages(); got != 3 {
		t.Fatalf("total messages mismatch! should be %d but got %d", 3, got)
	}

	snap := s.Snapshot()
	if snap["accountUpdates"].(int64) != 1 {
		t.Fatalf("accountUpdates mismatch! should be %d but got %v", 1, snap["accountUpdates"])
	}
	if snap["pricesApplied"].(int64) != 1 {
		t.Fatalf("pricesApplied mismatch! should be %d but got %v", 1, snap["pricesApplied"])
	}
	if snap["pricesDiscarded"].(int64) != 1 {
		t.Fatalf("pricesDiscarded mismatch! should be %d but got %v", 1, snap["pricesDiscarded"])
	}
	if snap["lowestUpdates"].(int64) != 1 {
		t.Fatalf("lowestUpdates mismatch! should be %d but got %v", 1, snap["lowestUpdates"])
	}
	if snap["active"].(int64) != 2 {
		t.Fatalf("active mismatch! should be %d but got %v", 2, snap["active"])
	}
}

func TestPoolStatsOutOfRangeConn(t *testing.T) {
	s := NewPoolStats(1, nil)
	s.RecordMessage(5, time.Now())
	s.RecordReconnect(-1)
	if got := s.TotalMessages(); got != 0 {
		t.Fatalf("total messages mismatch! should be %d but got %d", 0, got)
	}
	if got := s.ConnMessages(5); got != 0 {
		t.Fatalf("out of range messages mismatch! should be %d but got %d", 0, got)
	}
}
