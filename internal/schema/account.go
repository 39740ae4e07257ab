package schema

import "strings"

// Account is an opaque account identifier. Comparison is case-insensitive,
// storage is case-preserving.
type Account struct {
	ID string
}

// NewAccount keeps the original spelling and trims surrounding space.
func NewAccount(id string) Account {
	return Account{ID: strings.TrimSpace(id)}
}

// Key returns the canonical form used for map keys and file names.
func (a Account) Key() string {
	return strings.ToLower(a.ID)
}

// Equal compares two accounts ignoring case.
func (a Account) Equal(other Account) bool {
	return a.Key() == other.Key()
}

func (a Account) String() string {
	return a.ID
}
