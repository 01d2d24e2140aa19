// Package pricing resolves a USD unit price for a crypto asset at a given
// hour from exchange kline data. When no quote leg yields a price the
// resolver reports the asset as unresolved instead of failing; the caller
// decides whether that becomes a warning.
package pricing

import (
	"strings"
	"time"

	"github.com/modek4/crypto-tax/internal/cache"
	"github.com/modek4/crypto-tax/internal/matcher"
)

// DefaultBaseURL is the public kline endpoint; only the candle close is used.
const DefaultBaseURL = "https://api.binance.com/api/v3/klines"

// quoteLegs is the cascade order for indirect pricing. Each non-USD leg is
// multiplied by the quote asset's own USD price for the same hour.
var quoteLegs = []string{"BTC", "ETH", "BNB"}

// baseAssets resolve through the direct USD leg only. This closes the
// quote-leg graph: a recursive call never prices an asset against itself.
var baseAssets = map[string]bool{"BTC": true, "ETH": true, "BNB": true}

// Resolver prices assets with caching at hour resolution.
type Resolver struct {
	kline       *klineClient
	cache       cache.Store
	extraStable map[string]bool
}

// NewResolver creates a price resolver backed by the given cache store.
// Extra stablecoin symbols extend the built-in 1:1 USD set.
func NewResolver(baseURL string, store cache.Store, extraStablecoins []string) *Resolver {
	return &Resolver{
		kline:       newKlineClient(baseURL),
		cache:       store,
		extraStable: matcher.StablecoinSet(extraStablecoins),
	}
}

// USDPrice returns the USD close price of the 1h candle covering ts.
// Stablecoins are 1.0 without a network call; fiat symbols are out of scope
// here and report unresolved.
func (r *Resolver) USDPrice(symbol string, ts time.Time) (float64, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if matcher.IsStablecoin(sym, r.extraStable) {
		return 1.0, true
	}
	if matcher.IsFiat(sym) {
		return 0, false
	}

	hour := ts.UTC().Truncate(time.Hour)
	hourUnix := hour.Unix()
	if p, ok := r.cache.Price(sym, hourUnix); ok {
		return p, true
	}

	// Direct USD-pegged pair first.
	if p, ok := r.kline.close(sym+"USDT", hour); ok {
		r.cache.PutPrice(sym, hourUnix, p)
		return p, true
	}
	if baseAssets[sym] {
		return 0, false
	}

	// Indirect legs: pair close × quote asset USD price for the same hour.
	for _, quote := range quoteLegs {
		leg, ok := r.kline.close(sym+quote, hour)
		if !ok {
			continue
		}
		quoteUSD, ok := r.USDPrice(quote, ts)
		if !ok {
			continue
		}
		p := leg * quoteUSD
		r.cache.PutPrice(sym, hourUnix, p)
		return p, true
	}

	return 0, false
}
