// Package plan projects bi-weekly contributions across asset classes.
package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Service implements PlanService. Planning is stateless — every call works
// from the snapshot it is handed, so a re-run after prices move simply
// produces a new plan.
type Service struct {
	catchupThreshold decimal.Decimal // total underweight pp that flips to catch-up
	leadFraction     decimal.Decimal // share of a catch-up contribution sent to the worst class
	logger           *common.Logger
}

// NewService creates a new plan service from the contribution configuration.
func NewService(cfg common.ContributionConfig, logger *common.Logger) *Service {
	threshold := decimal.NewFromFloat(cfg.CatchupThresholdPct)
	if threshold.LessThanOrEqual(decimal.Zero) {
		threshold = decimal.NewFromInt(10)
	}
	lead := decimal.NewFromFloat(cfg.CatchupLeadFraction)
	if lead.LessThanOrEqual(decimal.Zero) || lead.GreaterThan(decimal.NewFromInt(1)) {
		lead = decimal.NewFromFloat(0.6)
	}
	return &Service{
		catchupThreshold: threshold,
		leadFraction:     lead,
		logger:           logger,
	}
}

// PlanContribution splits a contribution across the snapshot's classes.
//
// Tactical phase: underweight classes are funded worst-first, each capped
// at what would bring it to its band midpoint against the post-contribution
// total. Leftover flows to in-band classes below their midpoints,
// proportional to midpoint weight. Catch-up phase (total underweight above
// the threshold) sends the lead fraction to the single worst class first,
// capped at reaching its band minimum, then distributes the rest
// tactically. When no class is underweight the plan is empty — the whole
// amount is reported as unallocated, never forced into a class already
// inside or above its band.
func (s *Service) PlanContribution(snapshot *models.AllocationSnapshot, amount decimal.Decimal) *models.ContributionPlan {
	p := &models.ContributionPlan{
		AsOf:   time.Now(),
		Amount: amount,
		Phase:  models.PhaseTactical,
	}
	if snapshot == nil || amount.LessThanOrEqual(decimal.Zero) {
		return p
	}

	if snapshot.TotalUnderweight.GreaterThan(s.catchupThreshold) {
		p.Phase = models.PhaseCatchUp
	}

	newTotal := snapshot.NetWorth.Add(amount)
	alloc := newAllocator(snapshot, newTotal)
	remaining := amount

	underweight := alloc.byStatus(models.DriftUnderweight)
	if len(underweight) == 0 {
		p.Unallocated = amount
		s.logger.Debug().
			Str("amount", amount.StringFixed(2)).
			Msg("No underweight classes; contribution left unallocated")
		return p
	}
	sort.Slice(underweight, func(i, j int) bool {
		return underweight[i].Magnitude.GreaterThan(underweight[j].Magnitude)
	})

	if p.Phase == models.PhaseCatchUp && len(underweight) > 0 {
		lead := underweight[0]
		leadCap := alloc.capToFloor(lead)
		leadAmount := decimal.Min(remaining.Mul(s.leadFraction), leadCap)
		remaining = remaining.Sub(alloc.fund(lead.Class, leadAmount,
			fmt.Sprintf("catch-up lead: %spp under band", lead.Magnitude.StringFixed(1))))
	}

	for _, d := range underweight {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		target := decimal.Min(remaining, alloc.capToMidpoint(d.Class))
		remaining = remaining.Sub(alloc.fund(d.Class, target,
			fmt.Sprintf("underweight by %spp", d.Magnitude.StringFixed(1))))
	}

	// Leftover goes to in-band classes still below their midpoints,
	// proportional to midpoint weight.
	if remaining.IsPositive() {
		remaining = s.spreadToInBand(alloc, remaining)
	}

	p.Allocations = alloc.allocations()
	p.Unallocated = remaining

	s.logger.Debug().
		Str("phase", string(p.Phase)).
		Str("amount", amount.StringFixed(2)).
		Str("unallocated", p.Unallocated.StringFixed(2)).
		Int("classes", len(p.Allocations)).
		Msg("Contribution planned")

	return p
}

// spreadToInBand distributes leftover to in-band classes by midpoint
// weight, respecting midpoint caps. Returns what still could not be placed.
func (s *Service) spreadToInBand(alloc *allocator, remaining decimal.Decimal) decimal.Decimal {
	inBand := alloc.byStatus(models.DriftInBand)

	weight := decimal.Zero
	for _, d := range inBand {
		if alloc.capToMidpoint(d.Class).IsPositive() {
			weight = weight.Add(d.Band.Midpoint())
		}
	}
	if !weight.IsPositive() {
		return remaining
	}

	pool := remaining
	for _, d := range inBand {
		cap := alloc.capToMidpoint(d.Class)
		if !cap.IsPositive() {
			continue
		}
		share := pool.Mul(d.Band.Midpoint()).Div(weight)
		target := decimal.Min(decimal.Min(share, cap), remaining)
		remaining = remaining.Sub(alloc.fund(d.Class, target, "in-band rebalance"))
	}
	return remaining
}

// allocator tracks per-class funding against midpoint caps for one plan.
type allocator struct {
	drifts   map[models.AssetClass]*models.ClassDrift
	order    []models.AssetClass
	funded   map[models.AssetClass]decimal.Decimal
	reasons  map[models.AssetClass]string
	newTotal decimal.Decimal
}

func newAllocator(snapshot *models.AllocationSnapshot, newTotal decimal.Decimal) *allocator {
	a := &allocator{
		drifts:   make(map[models.AssetClass]*models.ClassDrift, len(snapshot.Classes)),
		funded:   make(map[models.AssetClass]decimal.Decimal),
		reasons:  make(map[models.AssetClass]string),
		newTotal: newTotal,
	}
	for i := range snapshot.Classes {
		d := &snapshot.Classes[i]
		a.drifts[d.Class] = d
		a.order = append(a.order, d.Class)
	}
	return a
}

func (a *allocator) byStatus(status models.DriftStatus) []*models.ClassDrift {
	var out []*models.ClassDrift
	for _, class := range a.order {
		if d := a.drifts[class]; d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

// capToMidpoint is how much the class can absorb before passing its band
// midpoint against the post-contribution total, net of already-planned funding.
func (a *allocator) capToMidpoint(class models.AssetClass) decimal.Decimal {
	d := a.drifts[class]
	cap := d.Band.Midpoint().Div(hundred).Mul(a.newTotal).Sub(d.Value).Sub(a.funded[class])
	if cap.IsNegative() {
		return decimal.Zero
	}
	return cap
}

// capToFloor is how much the class can absorb before reaching its band
// minimum against the post-contribution total.
func (a *allocator) capToFloor(d *models.ClassDrift) decimal.Decimal {
	cap := d.Band.Min.Div(hundred).Mul(a.newTotal).Sub(d.Value).Sub(a.funded[d.Class])
	if cap.IsNegative() {
		return decimal.Zero
	}
	return cap
}

// fund allocates an amount to a class and returns what was actually taken.
func (a *allocator) fund(class models.AssetClass, amount decimal.Decimal, reason string) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	a.funded[class] = a.funded[class].Add(amount)
	if _, ok := a.reasons[class]; !ok {
		a.reasons[class] = reason
	}
	return amount
}

// allocations returns the funded classes in snapshot order.
func (a *allocator) allocations() []models.ClassAllocation {
	var out []models.ClassAllocation
	for _, class := range a.order {
		if amt, ok := a.funded[class]; ok && amt.IsPositive() {
			out = append(out, models.ClassAllocation{
				Class:  class,
				Amount: amt,
				Reason: a.reasons[class],
			})
		}
	}
	return out
}

// Ensure interface compliance
var _ interfaces.PlanService = (*Service)(nil)
