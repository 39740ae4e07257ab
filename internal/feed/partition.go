package feed

import (
	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

// Partition splits accounts into ordered groups of at most size accounts
// each. Accounts keep their input order, every account lands in exactly one
// group, and an empty input yields zero groups. size values below one are
// treated as one.
func Partition(accounts []schema.Account, size int) [][]schema.Account {
	if len(accounts) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	groups := make([][]schema.Account, 0, (len(accounts)+size-1)/size)
	for start := 0; start < len(accounts); start += size {
		end := start + size
		if end > len(accounts) {
			end = len(accounts)
		}
		group := make([]schema.Account, end-start)
		copy(group, accounts[start:end])
		groups = append(groups, group)
	}
	return groups
}
