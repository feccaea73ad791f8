package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCostBasis_LotSumWinsOverAvgCost(t *testing.T) {
	h := Holding{
		Symbol:   "PHYS_GOLD",
		Class:    AssetClassGold,
		Quantity: decimal.NewFromInt(2),
		AvgCost:  decimal.NewFromInt(9999),
		Lots: []PurchaseLot{
			{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(2150), Quantity: decimal.NewFromInt(1)},
			{Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(2620), Quantity: decimal.NewFromInt(1)},
		},
	}

	if got := h.CostBasis(); !got.Equal(decimal.NewFromInt(4770)) {
		t.Errorf("expected lot-sum basis 4770, got %s", got)
	}
	if got := h.LotQuantity(); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected lot quantity 2, got %s", got)
	}
}

func TestCostBasis_FallsBackToAvgCost(t *testing.T) {
	h := Holding{
		Symbol:   "VTI",
		Quantity: decimal.NewFromInt(10),
		AvgCost:  decimal.NewFromFloat(210.50),
	}

	if got := h.CostBasis(); !got.Equal(decimal.NewFromInt(2105)) {
		t.Errorf("expected basis 2105, got %s", got)
	}
}

func TestPriceable(t *testing.T) {
	tests := []struct {
		name    string
		holding Holding
		want    bool
	}{
		{"equity with qty", Holding{Symbol: "VTI", Class: AssetClassEquities, Quantity: decimal.NewFromInt(10)}, true},
		{"manual blend", Holding{Symbol: "ManagedBlend", Class: AssetClassEquities, Manual: true}, false},
		{"cash", Holding{Symbol: "SPAXX", Class: AssetClassCash, Quantity: decimal.NewFromInt(12000)}, false},
		{"no symbol", Holding{Class: AssetClassEquities, Quantity: decimal.NewFromInt(1)}, false},
		{"zero quantity", Holding{Symbol: "VTI", Class: AssetClassEquities}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.holding.Priceable(); got != tt.want {
				t.Errorf("Priceable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapAssetClass(t *testing.T) {
	tests := []struct {
		in   string
		want AssetClass
	}{
		{"Cash", AssetClassCash},
		{"Equities", AssetClassEquities},
		{"ManagedBlend", AssetClassEquities},
		{"RetirementBlend", AssetClassEquities},
		{"", AssetClassEquities},
		{"Gold", AssetClassGold},
		{"RealEstate", AssetClassRealAssets},
		{"RealAssets", AssetClassRealAssets},
		{"SomethingNew", AssetClassEquities},
	}
	for _, tt := range tests {
		if got := MapAssetClass(tt.in); got != tt.want {
			t.Errorf("MapAssetClass(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPricePointUnavailable(t *testing.T) {
	var nilPoint *PricePoint
	if !nilPoint.Unavailable() {
		t.Error("nil point should be unavailable")
	}
	if !(&PricePoint{Freshness: FreshnessUnavailable}).Unavailable() {
		t.Error("unavailable freshness should report unavailable")
	}
	if (&PricePoint{Freshness: FreshnessStale}).Unavailable() {
		t.Error("stale point should not report unavailable")
	}
}
