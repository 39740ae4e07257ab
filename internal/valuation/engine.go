package valuation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/pricecache"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

// Result is one computed account valuation.
type Result struct {
	Total       decimal.Decimal
	PricesUsed  map[string]string
	PriceSource schema.PriceSource
}

// Engine turns account updates into total account values, consulting the
// price cache for live prices and falling back to entry notionals.
type Engine struct {
	cache *pricecache.Cache
}

// NewEngine builds an engine around a price cache.
func NewEngine(cache *pricecache.Cache) *Engine {
	return &Engine{cache: cache}
}

// ComputeTotalValue values an account: the margin component plus every spot
// balance with positive quantity. The stable asset counts at 1, assets with a
// cached price at quantity times price, and everything else at its entry
// notional with a fallback marker. Numeric fields must parse; a missing or
// unparsable required field wraps exception.ErrValuation.
func (e *Engine) ComputeTotalValue(marginValue string, balances []schema.SpotBalance) (Result, error) {
	if marginValue == "" {
		return Result{}, errors.Wrap(exception.ErrValuation, "margin account value missing")
	}
	total, err := decimal.NewFromString(marginValue)
	if err != nil {
		return Result{}, errors.Wrapf(exception.ErrValuation, "margin account value %q: %v", marginValue, err)
	}

	pricesUsed := make(map[string]string)
	source := schema.PriceSourceLive
	for _, balance := range balances {
		if balance.Total == "" {
			return Result{}, errors.Wrapf(exception.ErrValuation, "balance total missing for %s", balance.Coin)
		}
		qty, err := decimal.NewFromString(balance.Total)
		if err != nil {
			return Result{}, errors.Wrapf(exception.ErrValuation, "balance total %q for %s: %v", balance.Total, balance.Coin, err)
		}
		if qty.Sign() <= 0 {
			continue
		}

		if e.cache.IsStable(balance.Coin) {
			total = total.Add(qty)
			pricesUsed[balance.Coin] = "1"
			continue
		}

		if priceStr, ok := e.cache.LookupForSpotAsset(balance.Coin); ok {
			price, err := decimal.NewFromString(priceStr)
			if err != nil {
				return Result{}, errors.Wrapf(exception.ErrValuation, "cached price %q for %s: %v", priceStr, balance.Coin, err)
			}
			total = total.Add(qty.Mul(price))
			pricesUsed[balance.Coin] = priceStr
			continue
		}

		if balance.EntryNtl == "" {
			return Result{}, errors.Wrapf(exception.ErrValuation, "no live price and no entry notional for %s", balance.Coin)
		}
		ntl, err := decimal.NewFromString(balance.EntryNtl)
		if err != nil {
			return Result{}, errors.Wrapf(exception.ErrValuation, "entry notional %q for %s: %v", balance.EntryNtl, balance.Coin, err)
		}
		total = total.Add(ntl)
		pricesUsed[balance.Coin] = fallbackMarker(balance.EntryNtl)
		source = schema.PriceSourceFallback
	}

	return Result{Total: total, PricesUsed: pricesUsed, PriceSource: source}, nil
}

// Snapshot values an account update and stamps it with server and local time.
func (e *Engine) Snapshot(update *schema.AccountUpdate, now time.Time) (schema.ValuationSnapshot, error) {
	if update == nil {
		return schema.ValuationSnapshot{}, errors.Wrap(exception.ErrValuation, "nil account update")
	}
	margin := update.ClearinghouseState.MarginSummary.AccountValue
	result, err := e.ComputeTotalValue(margin, update.SpotState.Balances)
	if err != nil {
		return schema.ValuationSnapshot{}, err
	}
	return schema.ValuationSnapshot{
		User:              update.User,
		TotalAccountValue: result.Total.String(),
		MarginComponent:   margin,
		SpotBalances:      update.SpotState.Balances,
		PricesUsed:        result.PricesUsed,
		ServerTime:        update.Time,
		LocalTime:         now.UnixMilli(),
		PriceSource:       result.PriceSource,
	}, nil
}

func fallbackMarker(entryNtl string) string {
	return "fallback(" + entryNtl + ")"
}
