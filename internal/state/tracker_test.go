package state

import (
	"testing"
	"time"

	"github.com/gareth0712/hyperliquid-client/internal/recorder"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

var testNow = time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)

func snapWithTotal(total string) schema.ValuationSnapshot {
	return schema.ValuationSnapshot{
		User:              "0xAbC",
		TotalAccountValue: total,
		PriceSource:       schema.PriceSourceLive,
	}
}

func TestTrackerLowestIsStrict(t *testing.T) {
	tracker := NewValueTracker(schema.NewAccount("0xAbC"))
	if tracker.Account().ID != "0xAbC" {
		t.Fatalf("account mismatch! should be %s but got %s", "0xAbC", tracker.Account().ID)
	}

	testCases := []struct {
		total     string
		newLowest bool
	}{
		{"1250.00", true},
		{"1250.00", false},
		{"1240.00", true},
		{"1240.00", false},
		{"1300.00", false},
		{"1239.99", true},
	}

	for _, tc := range testCases {
		newLowest, _, err := tracker.Observe(snapWithTotal(tc.total))
		if err != nil {
			t.Fatalf("observe %s: %v", tc.total, err)
		}
		if newLowest != tc.newLowest {
			t.Fatalf("newLowest mismatch for %s! should be %v but got %v", tc.total, tc.newLowest, newLowest)
		}
	}

	lowest, ok := tracker.Lowest()
	if !ok {
		t.Fatal("lowest should exist")
	}
	if lowest.TotalAccountValue != "1239.99" {
		t.Fatalf("lowest mismatch! should be 1239.99 but got %s", lowest.TotalAccountValue)
	}
	highest, ok := tracker.Highest()
	if !ok {
		t.Fatal("highest should exist")
	}
	if highest.TotalAccountValue != "1300.00" {
		t.Fatalf("highest mismatch! should be 1300.00 but got %s", highest.TotalAccountValue)
	}
}

func TestTrackerComparesNumerically(t *testing.T) {
	tracker := NewValueTracker(schema.NewAccount("0xAbC"))

	// "900" sorts above "1000.00" as a string but is lower numerically.
	if _, _, err := tracker.Observe(snapWithTotal("1000.00")); err != nil {
		t.Fatalf("observe: %v", err)
	}
	newLowest, _, err := tracker.Observe(snapWithTotal("900"))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if !newLowest {
		t.Fatal("900 should be a new lowest after 1000.00")
	}
}

func TestRecoverHistoricalAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	account := schema.NewAccount("0xAbC")
	store, err := recorder.New(recorder.Config{Dir: dir, Mode: schema.PersistHistorical})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	totals := []string{"1250.00", "1240.00", "1260.00"}
	tracker := NewValueTracker(account)
	for _, total := range totals {
		snap := snapWithTotal(total)
		if err := store.AppendSnapshot(account, snap, testNow); err != nil {
			t.Fatalf("append: %v", err)
		}
		newLowest, _, err := tracker.Observe(snap)
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		if newLowest {
			if err := store.WriteLowestSnapshot(account, snap, testNow); err != nil {
				t.Fatalf("write lowest: %v", err)
			}
		}
	}

	// Restart: a fresh store and recovered trackers.
	store, err = recorder.New(recorder.Config{Dir: dir, Mode: schema.PersistHistorical})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	result, err := Recover(store, []schema.Account{account}, testNow)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if result.SnapshotsRead != 3 {
		t.Fatalf("snapshots read mismatch! should be 3 but got %d", result.SnapshotsRead)
	}
	recovered := result.Trackers[account.Key()]

	lowest, ok := recovered.Lowest()
	if !ok || lowest.TotalAccountValue != "1240.00" {
		t.Fatalf("recovered lowest mismatch: %+v ok=%v", lowest, ok)
	}

	// A higher value after restart must not become the persisted lowest.
	newLowest, _, err := recovered.Observe(snapWithTotal("1245.00"))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if newLowest {
		t.Fatal("1245.00 should not beat the recovered lowest 1240.00")
	}

	// A strictly lower one must.
	newLowest, _, err = recovered.Observe(snapWithTotal("1200.00"))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if !newLowest {
		t.Fatal("1200.00 should beat the recovered lowest 1240.00")
	}
}

func TestRecoverRawReplaysLowestLog(t *testing.T) {
	dir := t.TempDir()
	account := schema.NewAccount("0xAbC")
	store, err := recorder.New(recorder.Config{Dir: dir, Mode: schema.PersistRawAll})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, total := range []string{"1250.00", "1230.00"} {
		event := schema.LowestEvent{User: "0xAbC", TotalAccountValue: total, PriceSource: schema.PriceSourceLive}
		if err := store.AppendLowestEvent(account, event, testNow); err != nil {
			t.Fatalf("append lowest event: %v", err)
		}
	}

	result, err := Recover(store, []schema.Account{account}, testNow)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if result.EventsRead != 2 {
		t.Fatalf("events read mismatch! should be 2 but got %d", result.EventsRead)
	}
	lowest, ok := result.Trackers[account.Key()].Lowest()
	if !ok || lowest.TotalAccountValue != "1230.00" {
		t.Fatalf("recovered lowest mismatch: %+v ok=%v", lowest, ok)
	}
}

func TestRecoverMissingFilesYieldEmptyTrackers(t *testing.T) {
	store, err := recorder.New(recorder.Config{Dir: t.TempDir(), Mode: schema.PersistHistorical})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	account := schema.NewAccount("0xAbC")

	result, err := Recover(store, []schema.Account{account}, testNow)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if _, ok := result.Trackers[account.Key()].Lowest(); ok {
		t.Fatal("empty state should have no lowest")
	}
}
