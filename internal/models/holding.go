package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLot records a single physical-metal purchase.
type PurchaseLot struct {
	Date     time.Time       `json:"date"`
	Price    decimal.Decimal `json:"price"`  // per unit at purchase
	Quantity decimal.Decimal `json:"qty_oz"` // ounces
}

// Holding is a single portfolio position. Owned by the configuration and
// immutable except through explicit config edits.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Account  string          `json:"account,omitempty"`
	Class    AssetClass      `json:"asset_class"`
	Quantity decimal.Decimal `json:"qty"`
	AvgCost  decimal.Decimal `json:"avg_cost,omitempty"`

	// ManualValue is used directly when the holding has no live price
	// (blended accounts, SPAXX-style cash positions).
	ManualValue decimal.Decimal `json:"manual_value,omitempty"`
	Manual      bool            `json:"manual,omitempty"`

	// Lots carries purchase history for physical metals. When present,
	// cost basis is the lot sum rather than Quantity × AvgCost.
	Lots []PurchaseLot `json:"lots,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// CostBasis returns the holding's total cost: the lot sum when purchase
// history exists, otherwise Quantity × AvgCost.
func (h Holding) CostBasis() decimal.Decimal {
	if len(h.Lots) > 0 {
		total := decimal.Zero
		for _, lot := range h.Lots {
			total = total.Add(lot.Price.Mul(lot.Quantity))
		}
		return total
	}
	return h.Quantity.Mul(h.AvgCost)
}

// LotQuantity returns the summed quantity across purchase lots.
func (h Holding) LotQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range h.Lots {
		total = total.Add(lot.Quantity)
	}
	return total
}

// Priceable reports whether the holding should go through the price
// resolver. Manual holdings and cash are valued directly.
func (h Holding) Priceable() bool {
	return !h.Manual && h.Class != AssetClassCash && h.Symbol != "" && h.Quantity.IsPositive()
}
