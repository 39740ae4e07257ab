package state

import (
	"time"

	"github.com/gareth0712/hyperliquid-client/internal/recorder"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

// RecoverResult carries reconstructed trackers and resume metadata.
type RecoverResult struct {
	Trackers      map[string]*ValueTracker
	SnapshotsRead int
	EventsRead    int
}

// Recover rebuilds per-account value trackers from the current day's
// persisted state. Historical mode replays the history log and the lowest
// snapshot file; raw modes replay the lowest-event log. Missing files simply
// yield empty trackers.
func Recover(store *recorder.Store, accounts []schema.Account, now time.Time) (RecoverResult, error) {
	result := RecoverResult{Trackers: make(map[string]*ValueTracker, len(accounts))}

	for _, account := range accounts {
		tracker := NewValueTracker(account)
		result.Trackers[account.Key()] = tracker

		if store.Mode().IsRaw() {
			events, err := store.ReadLowestEvents(account, now)
			if err != nil {
				return RecoverResult{}, err
			}
			for _, event := range events {
				snap := schema.ValuationSnapshot{
					User:              event.User,
					TotalAccountValue: event.TotalAccountValue,
					ServerTime:        event.ServerTime,
					LocalTime:         event.LocalTime,
					PriceSource:       event.PriceSource,
				}
				if _, _, err := tracker.Observe(snap); err != nil {
					return RecoverResult{}, err
				}
				result.EventsRead++
			}
			continue
		}

		snaps, err := store.ReadSnapshots(account, now)
		if err != nil {
			return RecoverResult{}, err
		}
		for _, snap := range snaps {
			if _, _, err := tracker.Observe(snap); err != nil {
				return RecoverResult{}, err
			}
			result.SnapshotsRead++
		}
		lowest, err := store.ReadLowestSnapshot(account, now)
		if err != nil {
			return RecoverResult{}, err
		}
		if lowest != nil {
			if _, _, err := tracker.Observe(*lowest); err != nil {
				return RecoverResult{}, err
			}
		}
	}

	return result, nil
}
