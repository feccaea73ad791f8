// Package allocation compares valuations against target allocation bands.
package allocation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

// Service implements AllocationService. Analysis is a pure function of the
// valuation and the configured bands; it holds no state beyond the logger.
type Service struct {
	logger *common.Logger
}

// NewService creates a new allocation service.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// Analyze produces the per-class drift view of a valuation. Every class in
// the band configuration appears in the snapshot, as does every class the
// portfolio holds — a class with value but no band gets a zero band and is
// only in-band when its value is zero.
func (s *Service) Analyze(v *models.Valuation, bands map[models.AssetClass]models.TargetBand) *models.AllocationSnapshot {
	snap := &models.AllocationSnapshot{
		AsOf:     v.AsOf,
		NetWorth: v.NetWorth,
	}
	if snap.AsOf.IsZero() {
		snap.AsOf = time.Now()
	}

	hundred := decimal.NewFromInt(100)
	for _, class := range models.AllAssetClasses {
		band, hasBand := bands[class]
		value := v.ClassValue(class)
		if !hasBand && value.IsZero() {
			continue
		}

		percent := decimal.Zero
		if v.NetWorth.IsPositive() {
			percent = value.Mul(hundred).Div(v.NetWorth)
		}

		drift := models.ClassDrift{
			Class:   class,
			Value:   value,
			Percent: percent,
			Band:    band,
			Status:  models.DriftInBand,
		}
		switch {
		case percent.LessThan(band.Min):
			drift.Status = models.DriftUnderweight
			drift.Magnitude = band.Min.Sub(percent)
			snap.TotalUnderweight = snap.TotalUnderweight.Add(drift.Magnitude)
		case percent.GreaterThan(band.Max):
			drift.Status = models.DriftOverweight
			drift.Magnitude = percent.Sub(band.Max)
		}
		snap.Classes = append(snap.Classes, drift)
	}

	s.logger.Debug().
		Int("classes", len(snap.Classes)).
		Str("total_underweight", snap.TotalUnderweight.StringFixed(2)).
		Msg("Allocation analyzed")

	return snap
}

// Ensure interface compliance
var _ interfaces.AllocationService = (*Service)(nil)
