package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeldime/wealthos/internal/models"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "5m", cfg.Refresh.Quotes)
	assert.Equal(t, "6h", cfg.Refresh.Metals)
	assert.Equal(t, 4, cfg.Refresh.Concurrency)
	assert.Equal(t, "1h", cfg.Staleness.Metals)
	assert.Equal(t, 2000.0, cfg.Contribution.Amount)
	assert.Equal(t, 10.0, cfg.Contribution.CatchupThresholdPct)
	assert.Contains(t, cfg.PulseSymbols, "SPY")
	assert.Contains(t, cfg.FredSeries, "DGS10")
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wealthos.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment = "production"

[refresh]
quotes = "10m"

[contribution]
amount = 1500.0

[targets.Gold]
min = 10.0
max = 20.0

[[holdings]]
ticker = "VTI"
account = "Brokerage"
asset_class = "Equities"
qty = 10.0
avg_cost = 200.0
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "10m", cfg.Refresh.Quotes)
	// Untouched defaults survive the merge
	assert.Equal(t, "6h", cfg.Refresh.Metals)
	assert.Equal(t, 1500.0, cfg.Contribution.Amount)
	require.Len(t, cfg.Holdings, 1)
	assert.Equal(t, "VTI", cfg.Holdings[0].Ticker)
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("WEALTHOS_ENV", "production")
	t.Setenv("WEALTHOS_DATA_PATH", "/var/lib/wealthos")
	t.Setenv("GOLDAPI_IO", "goldapi-test-key")
	t.Setenv("FRED_API_KEY", "fred-test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "/var/lib/wealthos", cfg.Storage.Path)
	assert.Equal(t, "goldapi-test-key", cfg.Clients.GoldAPI.APIKey)
	assert.Equal(t, "fred-test-key", cfg.Clients.FRED.APIKey)
}

func TestBands(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Targets = map[string]BandConfig{
		"Gold":       {Min: 10, Max: 20},
		"RealEstate": {Min: 0, Max: 10}, // legacy name folds into RealAssets
	}

	bands := cfg.Bands()
	require.Contains(t, bands, models.AssetClassGold)
	assert.True(t, bands[models.AssetClassGold].Min.Equal(decimal.NewFromInt(10)))
	assert.Contains(t, bands, models.AssetClassRealAssets)
}

func TestBuildHoldings_SynthesizesMetalPositions(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.PhysicalMetals = []MetalConfig{
		{
			Metal: "gold",
			QtyOz: 2,
			Lots: []LotConfig{
				{Date: "2024-03-15", Price: 2150, QtyOz: 1},
				{Date: "2025-01-10", Price: 2620, QtyOz: 1},
			},
		},
		{Metal: "silver", QtyOz: 50},
	}

	holdings := cfg.BuildHoldings()
	require.Len(t, holdings, 2)

	var gold, silver *models.Holding
	for i := range holdings {
		switch holdings[i].Symbol {
		case "PHYS_GOLD":
			gold = &holdings[i]
		case "PHYS_SILVER":
			silver = &holdings[i]
		}
	}
	require.NotNil(t, gold)
	require.NotNil(t, silver)

	assert.Equal(t, models.AssetClassGold, gold.Class)
	assert.True(t, gold.Quantity.Equal(decimal.NewFromInt(2)))
	require.Len(t, gold.Lots, 2)
	assert.True(t, gold.CostBasis().Equal(decimal.NewFromInt(4770)))
	assert.True(t, silver.Quantity.Equal(decimal.NewFromInt(50)))
}

func TestBuildHoldings_BlendedAccountsAreManual(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.BlendedAccounts = []BlendedConfig{
		{Name: "ManagedBlend", AssetClass: "ManagedBlend", Value: 85000},
	}

	holdings := cfg.BuildHoldings()
	require.Len(t, holdings, 1)
	h := holdings[0]
	assert.True(t, h.Manual)
	assert.Equal(t, models.AssetClassEquities, h.Class)
	assert.True(t, h.ManualValue.Equal(decimal.NewFromInt(85000)))
	assert.False(t, h.Priceable())
}

func TestBuildHoldings_ValueOverrideWithoutQtyIsManual(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Holdings = []HoldingConfig{
		{Ticker: "PRIVATE", AssetClass: "Equities", ValueOverride: 25000},
	}

	holdings := cfg.BuildHoldings()
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Manual)
	assert.True(t, holdings[0].ManualValue.Equal(decimal.NewFromInt(25000)))
}

func TestProviderConfigGetTimeout(t *testing.T) {
	assert.Equal(t, 15.0, (&ProviderConfig{Timeout: "bogus"}).GetTimeout().Seconds())
	assert.Equal(t, 10.0, (&ProviderConfig{Timeout: "10s"}).GetTimeout().Seconds())
}
