package state

import (
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

// ValueTracker holds the running lowest and highest total account value for
// one account. The lowest side backs the persisted lowest-value record and is
// monotonically non-increasing for the tracker's lifetime.
type ValueTracker struct {
	account schema.Account

	hasLowest bool
	lowestVal decimal.Decimal
	lowest    schema.ValuationSnapshot

	hasHighest bool
	highestVal decimal.Decimal
	highest    schema.ValuationSnapshot
}

// NewValueTracker builds an empty tracker for an account.
func NewValueTracker(account schema.Account) *ValueTracker {
	return &ValueTracker{account: account}
}

// Account returns the tracked account.
func (t *ValueTracker) Account() schema.Account {
	return t.account
}

// Observe feeds one valuation into the tracker. newLowest is true when the
// total is strictly lower than everything seen so far (including state
// reconstructed from disk), newHighest likewise for strictly higher.
func (t *ValueTracker) Observe(snap schema.ValuationSnapshot) (newLowest, newHighest bool, err error) {
	total, err := decimal.NewFromString(snap.TotalAccountValue)
	if err != nil {
		return false, false, errors.Wrapf(exception.ErrPersistence, "unparsable total %q for %s: %v", snap.TotalAccountValue, t.account, err)
	}

	if !t.hasLowest || total.LessThan(t.lowestVal) {
		t.hasLowest = true
		t.lowestVal = total
		t.lowest = snap
		newLowest = true
	}
	if !t.hasHighest || total.GreaterThan(t.highestVal) {
		t.hasHighest = true
		t.highestVal = total
		t.highest = snap
		newHighest = true
	}
	return newLowest, newHighest, nil
}

// Lowest returns the snapshot holding the minimum observed total.
func (t *ValueTracker) Lowest() (schema.ValuationSnapshot, bool) {
	return t.lowest, t.hasLowest
}

// Highest returns the snapshot holding the maximum observed total.
func (t *ValueTracker) Highest() (schema.ValuationSnapshot, bool) {
	return t.highest, t.hasHighest
}
