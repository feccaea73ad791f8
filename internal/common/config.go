// Package common provides shared utilities for wealthos
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/models"
)

// Config holds all configuration for wealthos: holdings, target bands,
// contribution plan, provider credentials, and the ambient settings.
type Config struct {
	Environment  string                `toml:"environment"`
	Storage      StorageConfig         `toml:"storage"`
	Logging      LoggingConfig         `toml:"logging"`
	Clients      ClientsConfig         `toml:"clients"`
	Refresh      RefreshConfig         `toml:"refresh"`
	Staleness    StalenessConfig       `toml:"staleness"`
	Contribution ContributionConfig    `toml:"contribution"`
	Export       ExportConfig          `toml:"export"`
	Targets      map[string]BandConfig `toml:"targets"`

	Holdings        []HoldingConfig `toml:"holdings"`
	CryptoHoldings  []CryptoConfig  `toml:"crypto_holdings"`
	PhysicalMetals  []MetalConfig   `toml:"physical_metals"`
	BlendedAccounts []BlendedConfig `toml:"blended_accounts"`

	// PulseSymbols are always resolved alongside holdings for the
	// dashboard pulse bar (SPY, DXY, VIX, oil, copper by default).
	PulseSymbols []string `toml:"pulse_symbols"`

	// FredSeries are FRED series ids refreshed on the indicator cadence.
	FredSeries []string `toml:"fred_series"`
}

// ExportConfig holds the workbook and JSON snapshot export targets.
type ExportConfig struct {
	Workbook string `toml:"workbook"`
	Snapshot string `toml:"snapshot"`
}

// StorageConfig holds the durable store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// ClientsConfig holds price provider configurations.
type ClientsConfig struct {
	Yahoo     ProviderConfig `toml:"yahoo"`
	CoinGecko ProviderConfig `toml:"coingecko"`
	GoldAPI   ProviderConfig `toml:"goldapi"`
	FRED      ProviderConfig `toml:"fred"`
}

// ProviderConfig holds one provider's connection settings. A provider that
// requires an API key is treated as disabled when the key is absent.
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
	Disabled  bool   `toml:"disabled"`
}

// GetTimeout parses and returns the timeout duration.
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// RefreshConfig drives the background refresh cycle and the resolver's
// cache short-circuit windows.
type RefreshConfig struct {
	Quotes      string `toml:"quotes"`      // stocks + crypto interval
	Metals      string `toml:"metals"`      // quota-limited metals interval
	Indicators  string `toml:"indicators"`  // FRED / treasury interval
	Concurrency int    `toml:"concurrency"` // fan-out bound for ResolveAll
}

// StalenessConfig sets the per-class staleness windows: how old a
// cache-served price may be before it carries the stale marker.
type StalenessConfig struct {
	Equities string `toml:"equities"`
	Crypto   string `toml:"crypto"`
	Metals   string `toml:"metals"`
	Default  string `toml:"default"`
}

// Interval parses a refresh interval with a fallback default.
func Interval(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ContributionConfig holds the bi-weekly contribution plan parameters.
type ContributionConfig struct {
	Amount              float64 `toml:"amount"`
	CatchupThresholdPct float64 `toml:"catchup_threshold_pct"` // total underweight pp that flips phase
	CatchupLeadFraction float64 `toml:"catchup_lead_fraction"` // share to the most-underweight class in catch-up
}

// BandConfig is a target allocation band in percent.
type BandConfig struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// HoldingConfig is a brokerage position (stocks/ETFs).
type HoldingConfig struct {
	Ticker        string  `toml:"ticker"`
	Account       string  `toml:"account"`
	AssetClass    string  `toml:"asset_class"`
	Qty           float64 `toml:"qty"`
	AvgCost       float64 `toml:"avg_cost"`
	ValueOverride float64 `toml:"value_override"` // manual value when no live price applies
	Notes         string  `toml:"notes"`
}

// CryptoConfig is a crypto position.
type CryptoConfig struct {
	Symbol  string  `toml:"symbol"`
	Qty     float64 `toml:"qty"`
	AvgCost float64 `toml:"avg_cost"`
}

// MetalConfig is a physical metals position with optional purchase lots.
type MetalConfig struct {
	Metal string      `toml:"metal"` // "gold" or "silver"
	QtyOz float64     `toml:"qty_oz"`
	Lots  []LotConfig `toml:"lots"`
}

// LotConfig is a single metals purchase.
type LotConfig struct {
	Date  string  `toml:"date"` // YYYY-MM-DD
	Price float64 `toml:"price"`
	QtyOz float64 `toml:"qty_oz"`
}

// BlendedConfig is a manually valued account (managed/retirement blends,
// real assets, art). Valued at its stored value and marked manual.
type BlendedConfig struct {
	Name       string  `toml:"name"`
	AssetClass string  `toml:"asset_class"`
	Value      float64 `toml:"value"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage:     StorageConfig{Path: "data"},
		Logging:     LoggingConfig{Level: "info", Format: "console"},
		Clients: ClientsConfig{
			Yahoo: ProviderConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "15s",
			},
			CoinGecko: ProviderConfig{
				BaseURL:   "https://api.coingecko.com",
				RateLimit: 2,
				Timeout:   "15s",
			},
			GoldAPI: ProviderConfig{
				BaseURL:   "https://www.goldapi.io",
				RateLimit: 1,
				Timeout:   "10s",
			},
			FRED: ProviderConfig{
				BaseURL:   "https://api.stlouisfed.org",
				RateLimit: 2,
				Timeout:   "15s",
			},
		},
		Refresh: RefreshConfig{
			Quotes:      "5m",
			Metals:      "6h",
			Indicators:  "24h",
			Concurrency: 4,
		},
		Staleness: StalenessConfig{
			Equities: "30m",
			Crypto:   "30m",
			Metals:   "1h",
			Default:  "24h",
		},
		Contribution: ContributionConfig{
			Amount:              2000,
			CatchupThresholdPct: 10,
			CatchupLeadFraction: 0.6,
		},
		Export: ExportConfig{
			Workbook: "data/wealthos.xlsx",
			Snapshot: "data/snapshot.json",
		},
		PulseSymbols: []string{"SPY", "DX-Y.NYB", "^VIX", "CL=F", "HG=F"},
		FredSeries:   []string{"DGS10", "DGS2", "T10YIE", "FEDFUNDS", "UNRATE", "CPIAUCSL"},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// API keys take env over file so secrets can stay out of version control.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("WEALTHOS_ENV"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("WEALTHOS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("WEALTHOS_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}
	if v := os.Getenv("WEALTHOS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Refresh.Concurrency = n
		}
	}

	for _, name := range []string{"GOLDAPI_IO", "WEALTHOS_GOLDAPI_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.GoldAPI.APIKey = v
			break
		}
	}
	for _, name := range []string{"FRED_API_KEY", "WEALTHOS_FRED_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.FRED.APIKey = v
			break
		}
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Bands converts the configured targets into model bands keyed by class.
// Classes without a configured band get a zero band (in-band when empty).
func (c *Config) Bands() map[models.AssetClass]models.TargetBand {
	bands := make(map[models.AssetClass]models.TargetBand, len(c.Targets))
	for name, b := range c.Targets {
		bands[models.MapAssetClass(name)] = models.TargetBand{
			Min: decimal.NewFromFloat(b.Min),
			Max: decimal.NewFromFloat(b.Max),
		}
	}
	return bands
}

// BuildHoldings converts the configured positions into model holdings.
// Physical metals fold into the synthetic PHYS_GOLD / PHYS_SILVER symbols
// so they resolve through the metals provider chain.
func (c *Config) BuildHoldings() []models.Holding {
	holdings := make([]models.Holding, 0,
		len(c.Holdings)+len(c.CryptoHoldings)+len(c.BlendedAccounts)+2)

	for _, h := range c.Holdings {
		m := models.Holding{
			Symbol:   h.Ticker,
			Account:  h.Account,
			Class:    models.MapAssetClass(h.AssetClass),
			Quantity: decimal.NewFromFloat(h.Qty),
			AvgCost:  decimal.NewFromFloat(h.AvgCost),
			Notes:    h.Notes,
		}
		if h.ValueOverride > 0 {
			m.ManualValue = decimal.NewFromFloat(h.ValueOverride)
		}
		if h.Qty <= 0 && h.ValueOverride > 0 {
			m.Manual = true
		}
		holdings = append(holdings, m)
	}

	for _, ch := range c.CryptoHoldings {
		holdings = append(holdings, models.Holding{
			Symbol:   ch.Symbol,
			Account:  "Crypto",
			Class:    models.AssetClassCrypto,
			Quantity: decimal.NewFromFloat(ch.Qty),
			AvgCost:  decimal.NewFromFloat(ch.AvgCost),
		})
	}

	goldLots, silverLots := []models.PurchaseLot{}, []models.PurchaseLot{}
	goldOz, silverOz := decimal.Zero, decimal.Zero
	for _, pm := range c.PhysicalMetals {
		qty := decimal.NewFromFloat(pm.QtyOz)
		lots := make([]models.PurchaseLot, 0, len(pm.Lots))
		for _, l := range pm.Lots {
			// An unparsable date stays zero; the valuator reports the
			// holding as a configuration error and skips it.
			date, _ := time.Parse("2006-01-02", l.Date)
			lots = append(lots, models.PurchaseLot{
				Date:     date,
				Price:    decimal.NewFromFloat(l.Price),
				Quantity: decimal.NewFromFloat(l.QtyOz),
			})
		}
		switch pm.Metal {
		case "silver", "Silver":
			silverOz = silverOz.Add(qty)
			silverLots = append(silverLots, lots...)
		default:
			goldOz = goldOz.Add(qty)
			goldLots = append(goldLots, lots...)
		}
	}
	if goldOz.IsPositive() {
		holdings = append(holdings, models.Holding{
			Symbol:   "PHYS_GOLD",
			Account:  "Physical",
			Class:    models.AssetClassGold,
			Quantity: goldOz,
			Lots:     goldLots,
		})
	}
	if silverOz.IsPositive() {
		holdings = append(holdings, models.Holding{
			Symbol:   "PHYS_SILVER",
			Account:  "Physical",
			Class:    models.AssetClassSilver,
			Quantity: silverOz,
			Lots:     silverLots,
		})
	}

	for _, b := range c.BlendedAccounts {
		holdings = append(holdings, models.Holding{
			Symbol:      b.Name,
			Account:     b.Name,
			Class:       models.MapAssetClass(b.AssetClass),
			ManualValue: decimal.NewFromFloat(b.Value),
			Manual:      true,
			Notes:       "Manual update",
		})
	}

	return holdings
}
