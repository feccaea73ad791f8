package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuedHolding is a Holding joined with its resolved price. Derived —
// recomputed on every valuation pass, never persisted on its own.
type ValuedHolding struct {
	Holding     Holding         `json:"holding"`
	Price       *PricePoint     `json:"price,omitempty"`
	MarketValue decimal.Decimal `json:"market_value"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	Unrealized  decimal.Decimal `json:"unrealized_return"`
	Freshness   Freshness       `json:"freshness"`

	// NoPrice marks a holding whose market value could not be established
	// at all; its value is excluded from class and grand totals.
	NoPrice bool `json:"no_price,omitempty"`

	Err string `json:"error,omitempty"` // configuration error for this entry only
}

// ClassTotal aggregates one asset class within a valuation.
type ClassTotal struct {
	Class   AssetClass      `json:"class"`
	Value   decimal.Decimal `json:"value"`
	Percent decimal.Decimal `json:"percent"` // of valued net worth, full precision
}

// Valuation is the result of one complete valuation pass. It always
// completes: individual holdings degrade to stale/manual/unavailable
// markers rather than aborting the pass.
type Valuation struct {
	AsOf        time.Time                  `json:"as_of"`
	Holdings    []ValuedHolding            `json:"holdings"`
	ClassTotals map[AssetClass]*ClassTotal `json:"class_totals"`
	NetWorth    decimal.Decimal            `json:"net_worth"` // excludes unavailable holdings
	Unpriced    int                        `json:"unpriced"`  // holdings excluded for missing prices
	Stale       int                        `json:"stale"`     // holdings valued from cache fallback
}

// ClassValue returns the valued total for a class, zero when absent.
func (v *Valuation) ClassValue(class AssetClass) decimal.Decimal {
	if t, ok := v.ClassTotals[class]; ok {
		return t.Value
	}
	return decimal.Zero
}

// NetWorthRecord is one day in the append-only net-worth history.
// Multiple refreshes within a day update high/low/close in place; days are
// never rewritten after the fact.
type NetWorthRecord struct {
	Date  string          `json:"date" badgerhold:"key"` // YYYY-MM-DD
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`

	ClassTotals map[AssetClass]decimal.Decimal `json:"class_totals"`

	GoldSpot        decimal.Decimal `json:"gold,omitempty"`
	SilverSpot      decimal.Decimal `json:"silver,omitempty"`
	GoldSilverRatio decimal.Decimal `json:"gold_silver_ratio,omitempty"`
	Yield10Y        decimal.Decimal `json:"tnx_10y,omitempty"`
	Yield2Y         decimal.Decimal `json:"tnx_2y,omitempty"`

	LastUpdate time.Time `json:"last_update"`
}
