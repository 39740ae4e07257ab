package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gareth0712/hyperliquid-client/internal/recorder"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/internal/state"
)

const dateLayout = "2006-01-02"

func main() {
	dir := flag.String("dir", "data", "Data directory")
	date := flag.String("date", time.Now().Format(dateLayout), "Day to replay (YYYY-MM-DD)")
	account := flag.String("account", "", "Only this account (default: every account found)")
	flag.Parse()

	day, err := time.Parse(dateLayout, *date)
	if err != nil {
		log.Fatalf("invalid date: %v", err)
	}

	keys, err := discoverAccounts(*dir, *date)
	if err != nil {
		log.Fatalf("scan %s/%s failed: %v", *dir, *date, err)
	}
	if *account != "" {
		keys = []string{schema.NewAccount(*account).Key()}
	}
	if len(keys) == 0 {
		log.Fatalf("no account logs under %s/%s", *dir, *date)
	}

	store, err := recorder.New(recorder.Config{Dir: *dir, Mode: schema.PersistHistorical})
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}

	failures := 0
	for _, key := range keys {
		if err := replayAccount(store, schema.NewAccount(key), day); err != nil {
			failures++
			fmt.Printf("%s: FAIL %v\n", key, err)
		}
	}
	if failures > 0 {
		log.Fatalf("%d accounts failed verification", failures)
	}
}

// discoverAccounts lists every account key with at least one record file for
// the day.
func discoverAccounts(dir, date string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key := accountKeyFromFile(entry.Name())
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func accountKeyFromFile(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, prefix := range []string{"history_", "raw_", "lowest_"} {
		if strings.HasPrefix(stem, prefix) {
			return strings.TrimPrefix(stem, prefix)
		}
	}
	return ""
}

// replayAccount reloads one account's day, recomputes the running lowest from
// the history log and checks every persisted lowest record against it.
func replayAccount(store *recorder.Store, account schema.Account, day time.Time) error {
	snaps, err := store.ReadSnapshots(account, day)
	if err != nil {
		return err
	}
	events, err := store.ReadLowestEvents(account, day)
	if err != nil {
		return err
	}
	raw, err := store.ReadRaw(account, day)
	if err != nil {
		return err
	}
	lowestSnap, err := store.ReadLowestSnapshot(account, day)
	if err != nil {
		return err
	}

	if err := verifyDecreasing(events); err != nil {
		return err
	}

	tracker := state.NewValueTracker(account)
	for i, snap := range snaps {
		if _, _, err := tracker.Observe(snap); err != nil {
			return fmt.Errorf("snapshot %d: %v", i, err)
		}
	}

	lowest, highest := "-", "-"
	if snap, ok := tracker.Lowest(); ok {
		lowest = snap.TotalAccountValue
	}
	if snap, ok := tracker.Highest(); ok {
		highest = snap.TotalAccountValue
	}

	if lowestSnap != nil && len(snaps) > 0 {
		if err := compareTotals("lowest snapshot", lowestSnap.TotalAccountValue, lowest); err != nil {
			return err
		}
	}
	if len(events) > 0 {
		final := events[len(events)-1].TotalAccountValue
		if len(snaps) > 0 {
			if err := compareTotals("final lowest event", final, lowest); err != nil {
				return err
			}
		}
		if lowest == "-" {
			lowest = final
		}
	}
	if lowestSnap != nil && lowest == "-" {
		lowest = lowestSnap.TotalAccountValue
	}

	fmt.Printf("%s: snapshots=%d raw=%d lowestEvents=%d lowest=%s highest=%s\n",
		account.Key(), len(snaps), len(raw), len(events), lowest, highest)
	return nil
}

func verifyDecreasing(events []schema.LowestEvent) error {
	var prev decimal.Decimal
	for i, event := range events {
		value, err := decimal.NewFromString(event.TotalAccountValue)
		if err != nil {
			return fmt.Errorf("lowest event %d: unparsable total %q", i, event.TotalAccountValue)
		}
		if i > 0 && value.GreaterThanOrEqual(prev) {
			return fmt.Errorf("lowest event %d: %s does not undercut %s", i, event.TotalAccountValue, prev)
		}
		prev = value
	}
	return nil
}

func compareTotals(what, got, want string) error {
	gotVal, err := decimal.NewFromString(got)
	if err != nil {
		return fmt.Errorf("%s: unparsable total %q", what, got)
	}
	wantVal, err := decimal.NewFromString(want)
	if err != nil {
		return fmt.Errorf("%s: unparsable recomputed total %q", what, want)
	}
	if !gotVal.Equal(wantVal) {
		return fmt.Errorf("%s: %s does not match recomputed %s", what, got, want)
	}
	return nil
}
