// Package portfolio provides portfolio valuation and net-worth history
// recording.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

// Treasury yield symbols recorded alongside each history entry.
const (
	symbolYield10Y = "^TNX"
	symbolYield2Y  = "2YY=F"
)

// Service implements PortfolioService: valuation over resolved prices and
// the daily OHLC net-worth history.
type Service struct {
	resolver interfaces.PriceResolver
	storage  interfaces.StorageManager
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new portfolio service.
func NewService(resolver interfaces.PriceResolver, storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		resolver: resolver,
		storage:  storage,
		logger:   logger,
		now:      time.Now,
	}
}

// Valuate runs a complete valuation pass over the holdings. The pass always
// completes: holdings with no obtainable price degrade to unavailable
// markers and drop out of the totals rather than aborting the run.
func (s *Service) Valuate(ctx context.Context, holdings []models.Holding) (*models.Valuation, error) {
	reqs := make([]interfaces.ResolveRequest, 0, len(holdings))
	for _, h := range holdings {
		if h.Priceable() {
			reqs = append(reqs, interfaces.ResolveRequest{Symbol: h.Symbol, Class: h.Class})
		}
	}
	prices := s.resolver.ResolveAll(ctx, reqs)

	v := &models.Valuation{
		AsOf:        s.now(),
		Holdings:    make([]models.ValuedHolding, 0, len(holdings)),
		ClassTotals: make(map[models.AssetClass]*models.ClassTotal),
	}

	for _, h := range holdings {
		var vh models.ValuedHolding
		if err := validateHolding(h); err != nil {
			// Bad config entries are fatal for this entry only: reported
			// errored and excluded from totals, the pass continues.
			vh = models.ValuedHolding{
				Holding:   h,
				Freshness: models.FreshnessUnavailable,
				NoPrice:   true,
				Err:       err.Error(),
			}
			s.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Invalid holding excluded from valuation")
		} else {
			vh = s.valueHolding(h, prices)
		}
		v.Holdings = append(v.Holdings, vh)

		switch vh.Freshness {
		case models.FreshnessUnavailable:
			v.Unpriced++
			continue // excluded from totals
		case models.FreshnessStale:
			v.Stale++
		}

		total, ok := v.ClassTotals[h.Class]
		if !ok {
			total = &models.ClassTotal{Class: h.Class}
			v.ClassTotals[h.Class] = total
		}
		total.Value = total.Value.Add(vh.MarketValue)
		v.NetWorth = v.NetWorth.Add(vh.MarketValue)
	}

	// Percentages are derived after all totals settle so they always sum
	// to 100 against the valued net worth.
	if v.NetWorth.IsPositive() {
		hundred := decimal.NewFromInt(100)
		for _, total := range v.ClassTotals {
			total.Percent = total.Value.Mul(hundred).Div(v.NetWorth)
		}
	}

	s.logger.Info().
		Str("net_worth", v.NetWorth.StringFixed(2)).
		Int("holdings", len(v.Holdings)).
		Int("unpriced", v.Unpriced).
		Int("stale", v.Stale).
		Msg("Valuation complete")

	return v, nil
}

// validateHolding checks one config entry for values no valuation can be
// built on. A zero lot date means the configured date string did not parse.
func validateHolding(h models.Holding) error {
	if h.Quantity.IsNegative() {
		return fmt.Errorf("negative quantity %s", h.Quantity)
	}
	if h.ManualValue.IsNegative() {
		return fmt.Errorf("negative manual value %s", h.ManualValue)
	}
	for _, lot := range h.Lots {
		if lot.Date.IsZero() {
			return fmt.Errorf("purchase lot with missing or invalid date")
		}
		if lot.Price.IsNegative() || lot.Quantity.IsNegative() {
			return fmt.Errorf("purchase lot with negative price or quantity")
		}
	}
	return nil
}

// valueHolding joins one holding with its resolved price.
func (s *Service) valueHolding(h models.Holding, prices map[string]*models.PricePoint) models.ValuedHolding {
	vh := models.ValuedHolding{
		Holding:   h,
		CostBasis: h.CostBasis(),
	}

	switch {
	case h.Manual:
		vh.MarketValue = h.ManualValue
		vh.Freshness = models.FreshnessManual
	case h.Class == models.AssetClassCash:
		// Money-market style positions: value at quantity unless overridden.
		vh.MarketValue = h.Quantity
		if h.ManualValue.IsPositive() {
			vh.MarketValue = h.ManualValue
		}
		vh.Freshness = models.FreshnessManual
	default:
		point := prices[h.Symbol]
		switch {
		case !point.Unavailable():
			vh.Price = point
			vh.MarketValue = h.Quantity.Mul(point.Price)
			vh.Freshness = point.Freshness
		case h.ManualValue.IsPositive():
			// A configured fallback value beats dropping the holding.
			vh.MarketValue = h.ManualValue
			vh.Freshness = models.FreshnessManual
		default:
			vh.NoPrice = true
			vh.Freshness = models.FreshnessUnavailable
			return vh
		}
	}

	vh.Unrealized = vh.MarketValue.Sub(vh.CostBasis)
	return vh
}

// RecordHistory merges a valuation into today's history record, annotated
// with the metals spots and treasury yields from the price cache.
func (s *Service) RecordHistory(ctx context.Context, v *models.Valuation) error {
	if v == nil {
		return fmt.Errorf("cannot record nil valuation")
	}

	rec := &models.NetWorthRecord{
		Date:        s.now().Format("2006-01-02"),
		Close:       v.NetWorth,
		ClassTotals: make(map[models.AssetClass]decimal.Decimal, len(v.ClassTotals)),
	}
	for class, total := range v.ClassTotals {
		rec.ClassTotals[class] = total.Value
	}

	rec.GoldSpot = s.cachedPrice(ctx, "PHYS_GOLD")
	rec.SilverSpot = s.cachedPrice(ctx, "PHYS_SILVER")
	if rec.GoldSpot.IsPositive() && rec.SilverSpot.IsPositive() {
		rec.GoldSilverRatio = rec.GoldSpot.Div(rec.SilverSpot)
	}
	rec.Yield10Y = s.cachedPrice(ctx, symbolYield10Y)
	rec.Yield2Y = s.cachedPrice(ctx, symbolYield2Y)

	if err := s.storage.History().Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	s.logger.Debug().Str("date", rec.Date).Str("close", rec.Close.StringFixed(2)).Msg("History recorded")
	return nil
}

// cachedPrice reads a symbol's last cached price, zero when absent.
func (s *Service) cachedPrice(ctx context.Context, symbol string) decimal.Decimal {
	entry, err := s.storage.Prices().Get(ctx, symbol)
	if err != nil || entry == nil {
		return decimal.Zero
	}
	return entry.Point.Price
}

// Ensure interface compliance
var _ interfaces.PortfolioService = (*Service)(nil)
