package schema

// PriceSource tells whether every valued non-stable asset used a live cached
// price or at least one fell back to its entry notional.
type PriceSource string

const (
	PriceSourceLive     PriceSource = "live"
	PriceSourceFallback PriceSource = "fallback"
)

// ValuationSnapshot is one computed account valuation. Snapshots are appended
// to the account's history log and never mutated.
type ValuationSnapshot struct {
	User              string            `json:"user"`
	TotalAccountValue string            `json:"totalAccountValue"`
	MarginComponent   string            `json:"marginComponent"`
	SpotBalances      []SpotBalance     `json:"spotBalances,omitempty"`
	PricesUsed        map[string]string `json:"pricesUsed,omitempty"`
	ServerTime        int64             `json:"serverTime"`
	LocalTime         int64             `json:"localTime"`
	PriceSource       PriceSource       `json:"priceSource"`
}

// LowestEvent is one strictly-new low observed for an account, appended to
// the account's lowest log in raw persistence mode.
type LowestEvent struct {
	User              string      `json:"user"`
	TotalAccountValue string      `json:"totalAccountValue"`
	PriceSource       PriceSource `json:"priceSource"`
	ServerTime        int64       `json:"serverTime"`
	LocalTime         int64       `json:"localTime"`
}
