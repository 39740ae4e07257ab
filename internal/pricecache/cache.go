package pricecache

import (
	"strings"
	"sync"
)

// Cache holds the latest mid price per symbol as decimal strings. Entries are
// overwritten on every applied update; no history is retained.
type Cache struct {
	mu      sync.RWMutex
	prices  map[string]string
	stable  string
	aliases map[string]string
}

// New builds a cache. stable is the fixed-value asset always priced at 1,
// aliases maps spot-only symbol names to their priced equivalent.
func New(stable string, aliases map[string]string) *Cache {
	normalized := make(map[string]string, len(aliases))
	for from, to := range aliases {
		normalized[strings.ToUpper(from)] = to
	}
	return &Cache{
		prices:  make(map[string]string),
		stable:  strings.ToUpper(stable),
		aliases: normalized,
	}
}

// Update overwrites entries unconditionally.
func (c *Cache) Update(mids map[string]string) {
	if len(mids) == 0 {
		return
	}
	c.mu.Lock()
	for symbol, price := range mids {
		c.prices[symbol] = price
	}
	c.mu.Unlock()
}

// Lookup returns the latest price for a symbol.
func (c *Cache) Lookup(symbol string) (string, bool) {
	c.mu.RLock()
	price, ok := c.prices[symbol]
	c.mu.RUnlock()
	return price, ok
}

// LookupForSpotAsset resolves a spot holding's symbol to a price: the stable
// asset is always 1, aliased symbols resolve through the alias table, and
// everything else is a direct lookup.
func (c *Cache) LookupForSpotAsset(symbol string) (string, bool) {
	upper := strings.ToUpper(symbol)
	if upper == c.stable {
		return "1", true
	}
	if target, ok := c.aliases[upper]; ok {
		return c.Lookup(target)
	}
	return c.Lookup(symbol)
}

// IsStable reports whether the symbol is the fixed-value stable asset.
func (c *Cache) IsStable(symbol string) bool {
	return strings.ToUpper(symbol) == c.stable
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.prices)
	c.mu.RUnlock()
	return n
}
