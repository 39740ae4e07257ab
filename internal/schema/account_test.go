package schema

import "testing"

func TestAccountKeyPreservesSpelling(t *testing.T) {
	account := NewAccount("  0xAbC  ")
	if account.ID != "0xAbC" {
		t.Fatalf("id mismatch! should be %s but got %s", "0xAbC", account.ID)
	}
	if account.Key() != "0xabc" {
		t.Fatalf("key mismatch! should be %s but got %s", "0xabc", account.Key())
	}
	if account.String() != "0xAbC" {
		t.Fatalf("string mismatch! should be %s but got %s", "0xAbC", account.String())
	}
}

func TestAccountEqualIgnoresCase(t *testing.T) {
	if !NewAccount("0xAbC").Equal(NewAccount("0xabc")) {
		t.Fatal("accounts differing only in case should be equal")
	}
	if NewAccount("0xAbC").Equal(NewAccount("0xDeF")) {
		t.Fatal("different accounts should not be equal")
	}
}

func TestRunModeIsAvailable(t *testing.T) {
	for _, mode := range []RunMode{RunModeContinuous, RunModeSingleShot} {
		if !mode.IsAvailable() {
			t.Fatalf("mode %s should be available", mode)
		}
	}
	if RunMode(0).IsAvailable() || _run_mode_end.IsAvailable() {
		t.Fatal("boundary values should not be available")
	}
}

func TestPersistModeIsRaw(t *testing.T) {
	testCases := []struct {
		mode PersistMode
		raw  bool
	}{
		{PersistRawAll, true},
		{PersistRawFiltered, true},
		{PersistHistorical, false},
	}
	for _, tc := range testCases {
		if tc.mode.IsRaw() != tc.raw {
			t.Fatalf("IsRaw mismatch for %s! should be %v but got %v", tc.mode, tc.raw, tc.mode.IsRaw())
		}
	}
}
