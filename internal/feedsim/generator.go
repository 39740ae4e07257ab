// Package feedsim generates deterministic synthetic feed traffic for local
// runs and tests. Account values and prices follow a triangle wave around a
// base so lowest tracking sees fresh lows without randomness.
package feedsim

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

// Generator creates synthetic account updates and price broadcasts. Each user
// advances its own wave independently. Not safe for concurrent use.
type Generator struct {
	base      decimal.Decimal
	step      decimal.Decimal
	coin      string
	coinPrice decimal.Decimal
	stable    string
	pattern   []int64
	ticks     map[string]int
	priceTick int
}

// NewGenerator builds a generator. amplitude is the number of steps between
// the base and a wave peak.
func NewGenerator(base, step, coinPrice decimal.Decimal, coin, stable string, amplitude int64) *Generator {
	if amplitude < 1 {
		amplitude = 1
	}
	pattern := make([]int64, 0, 4*amplitude)
	for i := int64(0); i <= amplitude; i++ {
		pattern = append(pattern, i)
	}
	for i := amplitude - 1; i >= -amplitude; i-- {
		pattern = append(pattern, i)
	}
	for i := -amplitude + 1; i < 0; i++ {
		pattern = append(pattern, i)
	}
	return &Generator{
		base:      base,
		step:      step,
		coin:      coin,
		coinPrice: coinPrice,
		stable:    stable,
		pattern:   pattern,
		ticks:     make(map[string]int),
	}
}

// AccountUpdate creates the next update for user. The spot side carries one
// stable balance and one coin balance with an entry notional, so valuation
// works with or without a live price.
func (g *Generator) AccountUpdate(user string, now time.Time) schema.AccountUpdate {
	t := g.ticks[user]
	g.ticks[user] = t + 1
	offset := decimal.NewFromInt(g.pattern[t%len(g.pattern)])
	margin := g.base.Add(g.step.Mul(offset))
	qty := decimal.NewFromInt(2)
	return schema.AccountUpdate{
		User: user,
		Time: now.UnixMilli(),
		ClearinghouseState: schema.ClearinghouseState{
			MarginSummary: schema.MarginSummary{AccountValue: margin.String()},
		},
		SpotState: schema.SpotState{Balances: []schema.SpotBalance{
			{Coin: g.stable, Total: "500"},
			{Coin: g.coin, Total: qty.String(), EntryNtl: qty.Mul(g.coinPrice).String()},
		}},
	}
}

// PriceBroadcast creates the next shared mid price map.
func (g *Generator) PriceBroadcast() schema.PriceBroadcast {
	t := g.priceTick
	g.priceTick++
	offset := decimal.NewFromInt(g.pattern[t%len(g.pattern)])
	price := g.coinPrice.Add(g.step.Mul(offset))
	return schema.PriceBroadcast{Mids: map[string]string{g.coin: price.String()}}
}
