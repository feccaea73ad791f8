package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TargetBand is the configured allocation range for an asset class.
type TargetBand struct {
	Min decimal.Decimal `json:"min"` // percent
	Max decimal.Decimal `json:"max"` // percent
}

// Midpoint returns (min+max)/2, the per-contribution capping target.
func (b TargetBand) Midpoint() decimal.Decimal {
	return b.Min.Add(b.Max).Div(decimal.NewFromInt(2))
}

// DriftStatus flags a class's position relative to its band.
type DriftStatus string

const (
	DriftInBand      DriftStatus = "in_band"
	DriftUnderweight DriftStatus = "underweight"
	DriftOverweight  DriftStatus = "overweight"
)

// ClassDrift is the drift assessment for one asset class.
type ClassDrift struct {
	Class     AssetClass      `json:"class"`
	Value     decimal.Decimal `json:"value"`
	Percent   decimal.Decimal `json:"percent"`
	Band      TargetBand      `json:"band"`
	Status    DriftStatus     `json:"status"`
	Magnitude decimal.Decimal `json:"magnitude"` // percentage points outside the band, zero when in band
}

// AllocationSnapshot is the per-class drift view of one valuation pass.
type AllocationSnapshot struct {
	AsOf     time.Time       `json:"as_of"`
	NetWorth decimal.Decimal `json:"net_worth"`
	Classes  []ClassDrift    `json:"classes"`

	// TotalUnderweight is the sum of underweight magnitudes, the input to
	// the planner's phase decision.
	TotalUnderweight decimal.Decimal `json:"total_underweight"`
}

// Drift returns the entry for a class, nil when the class is untracked.
func (s *AllocationSnapshot) Drift(class AssetClass) *ClassDrift {
	for i := range s.Classes {
		if s.Classes[i].Class == class {
			return &s.Classes[i]
		}
	}
	return nil
}

// ContributionPhase selects the allocation strategy for a contribution.
type ContributionPhase string

const (
	PhaseTactical ContributionPhase = "tactical"
	PhaseCatchUp  ContributionPhase = "catch_up"
)

// ClassAllocation is one class's share of a planned contribution.
type ClassAllocation struct {
	Class  AssetClass      `json:"class"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason,omitempty"`
}

// ContributionPlan is the proposed split of the next bi-weekly contribution.
// Recomputed on demand from the latest AllocationSnapshot; no state is
// carried between planning calls.
type ContributionPlan struct {
	AsOf        time.Time         `json:"as_of"`
	Amount      decimal.Decimal   `json:"amount"`
	Phase       ContributionPhase `json:"phase"`
	Allocations []ClassAllocation `json:"allocations"`
	Unallocated decimal.Decimal   `json:"unallocated"`
}

// Total returns the sum of the planned class allocations.
func (p *ContributionPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}
