package allocation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/models"
)

func newTestService() *Service {
	return NewService(common.NewSilentLogger())
}

func band(min, max float64) models.TargetBand {
	return models.TargetBand{
		Min: decimal.NewFromFloat(min),
		Max: decimal.NewFromFloat(max),
	}
}

func valuation(classValues map[models.AssetClass]float64) *models.Valuation {
	v := &models.Valuation{
		AsOf:        time.Now(),
		ClassTotals: make(map[models.AssetClass]*models.ClassTotal),
	}
	for class, value := range classValues {
		d := decimal.NewFromFloat(value)
		v.ClassTotals[class] = &models.ClassTotal{Class: class, Value: d}
		v.NetWorth = v.NetWorth.Add(d)
	}
	return v
}

func TestAnalyze_ClassifiesDrift(t *testing.T) {
	// Gold at 5% of a [10,20] band: underweight by 5pp
	v := valuation(map[models.AssetClass]float64{
		models.AssetClassGold:     5000,
		models.AssetClassEquities: 60000,
		models.AssetClassCash:     35000,
	})
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassGold:     band(10, 20),
		models.AssetClassEquities: band(50, 70),
		models.AssetClassCash:     band(5, 15),
	}

	snap := newTestService().Analyze(v, bands)

	gold := snap.Drift(models.AssetClassGold)
	if gold == nil {
		t.Fatal("expected gold drift entry")
	}
	if gold.Status != models.DriftUnderweight {
		t.Errorf("expected gold underweight, got %s", gold.Status)
	}
	if !gold.Magnitude.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected gold magnitude 5pp, got %s", gold.Magnitude)
	}

	equities := snap.Drift(models.AssetClassEquities)
	if equities.Status != models.DriftInBand {
		t.Errorf("expected equities in band at 60%%, got %s", equities.Status)
	}
	if !equities.Magnitude.IsZero() {
		t.Errorf("expected zero magnitude in band, got %s", equities.Magnitude)
	}

	cash := snap.Drift(models.AssetClassCash)
	if cash.Status != models.DriftOverweight {
		t.Errorf("expected cash overweight at 35%%, got %s", cash.Status)
	}
	if !cash.Magnitude.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected cash magnitude 20pp, got %s", cash.Magnitude)
	}

	if !snap.TotalUnderweight.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected total underweight 5pp, got %s", snap.TotalUnderweight)
	}
}

func TestAnalyze_BandBoundariesAreInBand(t *testing.T) {
	v := valuation(map[models.AssetClass]float64{
		models.AssetClassGold:     10000, // exactly 10%
		models.AssetClassEquities: 90000,
	})
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassGold:     band(10, 20),
		models.AssetClassEquities: band(50, 90),
	}

	snap := newTestService().Analyze(v, bands)
	if got := snap.Drift(models.AssetClassGold).Status; got != models.DriftInBand {
		t.Errorf("expected min boundary in band, got %s", got)
	}
	if got := snap.Drift(models.AssetClassEquities).Status; got != models.DriftInBand {
		t.Errorf("expected max boundary in band, got %s", got)
	}
}

func TestAnalyze_ZeroTargetZeroHoldingsInBand(t *testing.T) {
	v := valuation(map[models.AssetClass]float64{
		models.AssetClassEquities: 100000,
	})
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassEquities: band(0, 100),
		models.AssetClassArt:      band(0, 0),
	}

	snap := newTestService().Analyze(v, bands)
	art := snap.Drift(models.AssetClassArt)
	if art == nil {
		t.Fatal("expected art entry for configured band")
	}
	if art.Status != models.DriftInBand {
		t.Errorf("expected zero target + zero holdings in band, got %s", art.Status)
	}
}

func TestAnalyze_UntrackedClassWithValueIsOverweight(t *testing.T) {
	v := valuation(map[models.AssetClass]float64{
		models.AssetClassEquities: 90000,
		models.AssetClassCrypto:   10000,
	})
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassEquities: band(0, 100),
	}

	snap := newTestService().Analyze(v, bands)
	crypto := snap.Drift(models.AssetClassCrypto)
	if crypto == nil {
		t.Fatal("expected held class surfaced even without a band")
	}
	if crypto.Status != models.DriftOverweight {
		t.Errorf("expected crypto overweight against zero band, got %s", crypto.Status)
	}
}

func TestAnalyze_ZeroNetWorth(t *testing.T) {
	v := &models.Valuation{AsOf: time.Now(), ClassTotals: map[models.AssetClass]*models.ClassTotal{}}
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassGold: band(10, 20),
	}

	snap := newTestService().Analyze(v, bands)
	gold := snap.Drift(models.AssetClassGold)
	if gold == nil {
		t.Fatal("expected gold entry")
	}
	// 0% against min 10: underweight, but percent must not blow up on /0
	if gold.Status != models.DriftUnderweight {
		t.Errorf("expected underweight at zero net worth, got %s", gold.Status)
	}
	if !gold.Percent.IsZero() {
		t.Errorf("expected zero percent, got %s", gold.Percent)
	}
}

func TestAnalyze_PercentagesSumToHundred(t *testing.T) {
	v := valuation(map[models.AssetClass]float64{
		models.AssetClassEquities: 33333,
		models.AssetClassGold:     33333,
		models.AssetClassCrypto:   33334,
	})
	bands := map[models.AssetClass]models.TargetBand{
		models.AssetClassEquities: band(0, 100),
		models.AssetClassGold:     band(0, 100),
		models.AssetClassCrypto:   band(0, 100),
	}

	snap := newTestService().Analyze(v, bands)
	sum := decimal.Zero
	for _, c := range snap.Classes {
		sum = sum.Add(c.Percent)
	}
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("expected percentages to sum to 100±0.01, got %s", sum)
	}
}
