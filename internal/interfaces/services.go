package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/models"
)

// ResolveRequest is one symbol to resolve within a fan-out pass.
type ResolveRequest struct {
	Symbol string
	Class  models.AssetClass
}

// PriceResolver resolves symbols to price points with provider fallback
// and cache degradation. Resolve never fails on provider errors — the
// result carries a freshness marker instead. It returns an error only when
// the cache itself is unavailable and no provider produced a price.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string, class models.AssetClass) (*models.PricePoint, error)

	// ResolveAll fans out across symbols with a bounded concurrency limit;
	// each symbol's provider chain remains sequential.
	ResolveAll(ctx context.Context, reqs []ResolveRequest) map[string]*models.PricePoint
}

// PortfolioService values holdings and maintains the net-worth history.
type PortfolioService interface {
	// Valuate runs a complete valuation pass. It always completes; degraded
	// prices surface as stale/manual/unavailable markers per holding.
	Valuate(ctx context.Context, holdings []models.Holding) (*models.Valuation, error)

	// RecordHistory merges a valuation into the append-only history.
	RecordHistory(ctx context.Context, v *models.Valuation) error
}

// AllocationService compares a valuation against target bands.
type AllocationService interface {
	Analyze(v *models.Valuation, bands map[models.AssetClass]models.TargetBand) *models.AllocationSnapshot
}

// PlanService projects the next contribution across asset classes.
type PlanService interface {
	PlanContribution(snapshot *models.AllocationSnapshot, amount decimal.Decimal) *models.ContributionPlan
}

// ReportService exports read-only snapshots for external consumers.
type ReportService interface {
	// WriteWorkbook writes the Excel workbook (holdings, dashboard,
	// targets, contribution plan, price history sheets).
	WriteWorkbook(ctx context.Context, path string, v *models.Valuation, snap *models.AllocationSnapshot, plan *models.ContributionPlan) error

	// WriteSnapshot writes the same state as a JSON document.
	WriteSnapshot(ctx context.Context, path string, v *models.Valuation, snap *models.AllocationSnapshot, plan *models.ContributionPlan) error
}
