package valuation

import (
	"testing"
	"time"

	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/pricecache"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

func newTestCache() *pricecache.Cache {
	return pricecache.New("USDC", map[string]string{"USOL": "SOL"})
}

func TestComputeTotalValueFallback(t *testing.T) {
	cache := newTestCache()
	engine := NewEngine(cache)

	balances := []schema.SpotBalance{
		{Coin: "USDC", Total: "50"},
		{Coin: "USOL", Total: "2", EntryNtl: "190"},
	}
	result, err := engine.ComputeTotalValue("1000.00", balances)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := result.Total.String(); got != "1240" {
		t.Fatalf("total mismatch! should be 1240 but got %s", got)
	}
	if result.PriceSource != schema.PriceSourceFallback {
		t.Fatalf("source mismatch! should be fallback but got %s", result.PriceSource)
	}
	if result.PricesUsed["USDC"] != "1" {
		t.Fatalf("stable price used mismatch: %+v", result.PricesUsed)
	}
	if result.PricesUsed["USOL"] != "fallback(190)" {
		t.Fatalf("fallback marker mismatch: %+v", result.PricesUsed)
	}
}

func TestComputeTotalValueLive(t *testing.T) {
	cache := newTestCache()
	cache.Update(map[string]string{"SOL": "100"})
	engine := NewEngine(cache)

	balances := []schema.SpotBalance{
		{Coin: "USDC", Total: "50"},
		{Coin: "USOL", Total: "2", EntryNtl: "190"},
	}
	result, err := engine.ComputeTotalValue("1000.00", balances)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := result.Total.String(); got != "1250" {
		t.Fatalf("total mismatch! should be 1250 but got %s", got)
	}
	if result.PriceSource != schema.PriceSourceLive {
		t.Fatalf("source mismatch! should be live but got %s", result.PriceSource)
	}
	if result.PricesUsed["USOL"] != "100" {
		t.Fatalf("live price used mismatch: %+v", result.PricesUsed)
	}
}

func TestComputeTotalValueSkipsNonPositive(t *testing.T) {
	cache := newTestCache()
	engine := NewEngine(cache)

	balances := []schema.SpotBalance{
		{Coin: "USDC", Total: "0"},
		{Coin: "PURR", Total: "-3", EntryNtl: "10"},
	}
	result, err := engine.ComputeTotalValue("100", balances)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := result.Total.String(); got != "100" {
		t.Fatalf("total mismatch! should be 100 but got %s", got)
	}
	if len(result.PricesUsed) != 0 {
		t.Fatalf("skipped balances should not be recorded: %+v", result.PricesUsed)
	}
	if result.PriceSource != schema.PriceSourceLive {
		t.Fatalf("source mismatch! should be live but got %s", result.PriceSource)
	}
}

func TestComputeTotalValueErrors(t *testing.T) {
	cache := newTestCache()
	engine := NewEngine(cache)

	testCases := []struct {
		desc     string
		margin   string
		balances []schema.SpotBalance
	}{
		{"missing margin", "", nil},
		{"unparsable margin", "abc", nil},
		{"missing balance total", "100", []schema.SpotBalance{{Coin: "SOL"}}},
		{"unparsable balance total", "100", []schema.SpotBalance{{Coin: "SOL", Total: "x"}}},
		{"no price and no notional", "100", []schema.SpotBalance{{Coin: "PURR", Total: "5"}}},
		{"unparsable notional", "100", []schema.SpotBalance{{Coin: "PURR", Total: "5", EntryNtl: "?"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := engine.ComputeTotalValue(tc.margin, tc.balances)
			if err == nil {
				t.Fatal("compute should fail")
			}
			if !errors.Is(err, exception.ErrValuation) {
				t.Fatalf("error should wrap ErrValuation, got %v", err)
			}
		})
	}
}

func TestSnapshotStampsTimes(t *testing.T) {
	cache := newTestCache()
	engine := NewEngine(cache)

	update := &schema.AccountUpdate{
		User: "0xAbC",
		Time: 1700000000123,
		ClearinghouseState: schema.ClearinghouseState{
			MarginSummary: schema.MarginSummary{AccountValue: "1000.00"},
		},
		SpotState: schema.SpotState{Balances: []schema.SpotBalance{
			{Coin: "USDC", Total: "50"},
			{Coin: "USOL", Total: "2", EntryNtl: "190"},
		}},
	}
	now := time.UnixMilli(1700000005000)

	snap, err := engine.Snapshot(update, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.User != "0xAbC" {
		t.Fatalf("user mismatch! got %s", snap.User)
	}
	if snap.TotalAccountValue != "1240" {
		t.Fatalf("total mismatch! should be 1240 but got %s", snap.TotalAccountValue)
	}
	if snap.MarginComponent != "1000.00" {
		t.Fatalf("margin mismatch! got %s", snap.MarginComponent)
	}
	if snap.ServerTime != 1700000000123 {
		t.Fatalf("server time mismatch! got %d", snap.ServerTime)
	}
	if snap.LocalTime != 1700000005000 {
		t.Fatalf("local time mismatch! got %d", snap.LocalTime)
	}
	if snap.PriceSource != schema.PriceSourceFallback {
		t.Fatalf("source mismatch! got %s", snap.PriceSource)
	}
}
