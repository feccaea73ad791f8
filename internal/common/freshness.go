// Package common provides shared utilities for wealthos
package common

import (
	"time"

	"github.com/nickeldime/wealthos/internal/models"
)

// Default refresh intervals per data family. Metals and FRED run far less
// often than quotes to stay inside free-tier quotas (GoldAPI ~100 req/month).
const (
	RefreshQuotes     = 5 * time.Minute
	RefreshMetals     = 6 * time.Hour
	RefreshIndicators = 24 * time.Hour
)

// Default staleness windows per asset class: how old a cached price may be
// before a cache-served result carries the stale marker. Metals sit below
// their refresh interval on purpose — the quota forbids refetching every
// cycle, so anything past an hour is served honestly marked stale.
const (
	StalenessEquities = 30 * time.Minute
	StalenessCrypto   = 30 * time.Minute
	StalenessMetals   = time.Hour
	StalenessDefault  = 24 * time.Hour
)

// Windows maps asset classes to their refresh interval (cache
// short-circuit) and staleness window (fresh/stale boundary on any
// cache-served result).
type Windows struct {
	Quotes     time.Duration
	Metals     time.Duration
	Indicators time.Duration

	StaleEquities time.Duration
	StaleCrypto   time.Duration
	StaleMetals   time.Duration
	StaleDefault  time.Duration
}

// NewWindows builds the per-class windows from the refresh and staleness
// configuration, falling back to the defaults for anything unset.
func NewWindows(refresh RefreshConfig, staleness StalenessConfig) Windows {
	return Windows{
		Quotes:        Interval(refresh.Quotes, RefreshQuotes),
		Metals:        Interval(refresh.Metals, RefreshMetals),
		Indicators:    Interval(refresh.Indicators, RefreshIndicators),
		StaleEquities: Interval(staleness.Equities, StalenessEquities),
		StaleCrypto:   Interval(staleness.Crypto, StalenessCrypto),
		StaleMetals:   Interval(staleness.Metals, StalenessMetals),
		StaleDefault:  Interval(staleness.Default, StalenessDefault),
	}
}

// RefreshInterval returns how long a cached price short-circuits live
// fetches for the given class.
func (w Windows) RefreshInterval(class models.AssetClass) time.Duration {
	switch class {
	case models.AssetClassGold, models.AssetClassSilver:
		return w.Metals
	case models.AssetClassIndicator:
		return w.Indicators
	default:
		return w.Quotes
	}
}

// StalenessWindow returns the age beyond which a cache-served price is
// marked stale for the given class.
func (w Windows) StalenessWindow(class models.AssetClass) time.Duration {
	switch class {
	case models.AssetClassEquities:
		return w.StaleEquities
	case models.AssetClassCrypto:
		return w.StaleCrypto
	case models.AssetClassGold, models.AssetClassSilver:
		return w.StaleMetals
	default:
		return w.StaleDefault
	}
}

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
