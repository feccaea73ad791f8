// Package models defines data structures for wealthos
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass is one of the seven top-level portfolio buckets.
type AssetClass string

const (
	AssetClassCash       AssetClass = "Cash"
	AssetClassEquities   AssetClass = "Equities"
	AssetClassGold       AssetClass = "Gold"
	AssetClassSilver     AssetClass = "Silver"
	AssetClassCrypto     AssetClass = "Crypto"
	AssetClassRealAssets AssetClass = "RealAssets"
	AssetClassArt        AssetClass = "Art"

	// AssetClassIndicator covers non-portfolio series (treasury yields,
	// FRED data, market pulse symbols) resolved through the same pipeline.
	AssetClassIndicator AssetClass = "Indicator"
)

// AllAssetClasses lists the portfolio buckets in display order.
// Indicator is excluded — it never holds value.
var AllAssetClasses = []AssetClass{
	AssetClassCash,
	AssetClassEquities,
	AssetClassGold,
	AssetClassSilver,
	AssetClassCrypto,
	AssetClassRealAssets,
	AssetClassArt,
}

// MapAssetClass normalizes config asset-class names to a bucket.
// Blended account types fold into Equities; unknown names default to Equities.
func MapAssetClass(name string) AssetClass {
	switch name {
	case "Cash":
		return AssetClassCash
	case "Equities", "ManagedBlend", "RetirementBlend", "":
		return AssetClassEquities
	case "Gold":
		return AssetClassGold
	case "Silver":
		return AssetClassSilver
	case "Crypto":
		return AssetClassCrypto
	case "RealAssets", "RealEstate":
		return AssetClassRealAssets
	case "Art":
		return AssetClassArt
	case "Indicator":
		return AssetClassIndicator
	default:
		return AssetClassEquities
	}
}

// Freshness classifies how a price was obtained.
type Freshness string

const (
	FreshnessFresh       Freshness = "fresh"       // live fetch succeeded (or cache within window)
	FreshnessStale       Freshness = "stale"       // cache fallback beyond the freshness window
	FreshnessManual      Freshness = "manual"      // user-entered value, no live source
	FreshnessUnavailable Freshness = "unavailable" // no provider and no cache entry
)

// PricePoint is a resolved price for a symbol. Immutable after creation —
// a new lookup produces a new PricePoint.
type PricePoint struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Freshness Freshness       `json:"freshness"`

	// CacheAge is how old the underlying data was at resolution time.
	// Zero for live fetches.
	CacheAge time.Duration `json:"cache_age,omitempty"`
}

// Unavailable returns true when no price data exists for the symbol.
func (p *PricePoint) Unavailable() bool {
	return p == nil || p.Freshness == FreshnessUnavailable
}

// CacheEntry is the durable record for a symbol's last-known price.
type CacheEntry struct {
	Symbol      string     `json:"symbol" badgerhold:"key"`
	Point       PricePoint `json:"point"`
	LastFetched time.Time  `json:"last_fetched"`
}

// ProviderErrorKind distinguishes provider failure modes so the resolver
// can decide between trying the next provider and falling back to cache.
type ProviderErrorKind string

const (
	ProviderErrTimeout       ProviderErrorKind = "timeout"
	ProviderErrRateLimit     ProviderErrorKind = "rate_limit"
	ProviderErrUnknownSymbol ProviderErrorKind = "unknown_symbol"
	ProviderErrMalformed     ProviderErrorKind = "malformed"
	ProviderErrNetwork       ProviderErrorKind = "network"
	ProviderErrDisabled      ProviderErrorKind = "disabled"
)

// ProviderError is a typed failure from a price provider adapter.
type ProviderError struct {
	Provider string
	Symbol   string
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Kind, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: %s %s", e.Provider, e.Kind, e.Symbol)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
