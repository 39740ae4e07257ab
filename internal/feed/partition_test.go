package feed

import (
	"testing"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

func TestPartition(t *testing.T) {
	accounts := func(ids ...string) []schema.Account {
		out := make([]schema.Account, 0, len(ids))
		for _, id := range ids {
			out = append(out, schema.NewAccount(id))
		}
		return out
	}

	testCases := []struct {
		desc     string
		accounts []schema.Account
		size     int
		want     [][]string
	}{
		{
			desc:     "empty list yields zero groups",
			accounts: nil,
			size:     10,
			want:     nil,
		},
		{
			desc:     "single group under limit",
			accounts: accounts("0xa", "0xb", "0xc"),
			size:     10,
			want:     [][]string{{"0xa", "0xb", "0xc"}},
		},
		{
			desc:     "exact multiple",
			accounts: accounts("0xa", "0xb", "0xc", "0xd"),
			size:     2,
			want:     [][]string{{"0xa", "0xb"}, {"0xc", "0xd"}},
		},
		{
			desc:     "remainder goes to the last group",
			accounts: accounts("0xa", "0xb", "0xc", "0xd", "0xe"),
			size:     2,
			want:     [][]string{{"0xa", "0xb"}, {"0xc", "0xd"}, {"0xe"}},
		},
		{
			desc:     "size below one clamps to one",
			accounts: accounts("0xa", "0xb"),
			size:     0,
			want:     [][]string{{"0xa"}, {"0xb"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := Partition(tc.accounts, tc.size)
			if len(got) != len(tc.want) {
				t.Fatalf("group count mismatch! should be %d but got %d", len(tc.want), len(got))
			}
			for i := range got {
				if len(got[i]) != len(tc.want[i]) {
					t.Fatalf("group %d size mismatch! should be %d but got %d", i, len(tc.want[i]), len(got[i]))
				}
				for j := range got[i] {
					if got[i][j].ID != tc.want[i][j] {
						t.Fatalf("group %d account %d mismatch! should be %s but got %s", i, j, tc.want[i][j], got[i][j].ID)
					}
				}
			}
		})
	}
}

func TestPartitionCoversEveryAccountOnce(t *testing.T) {
	var accounts []schema.Account
	for _, id := range []string{"0x1", "0x2", "0x3", "0x4", "0x5", "0x6", "0x7"} {
		accounts = append(accounts, schema.NewAccount(id))
	}

	groups := Partition(accounts, 3)
	seen := make(map[string]int)
	for _, group := range groups {
		if len(group) > 3 {
			t.Fatalf("group size exceeds limit! should be at most %d but got %d", 3, len(group))
		}
		for _, account := range group {
			seen[account.Key()]++
		}
	}
	if len(seen) != len(accounts) {
		t.Fatalf("coverage mismatch! should be %d accounts but got %d", len(accounts), len(seen))
	}
	for key, count := range seen {
		if count != 1 {
			t.Fatalf("account %s assigned %d times! should be exactly once", key, count)
		}
	}
}
