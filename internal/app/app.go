// Package app wires configuration, storage, clients, and services into the
// running application.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/clients/coingecko"
	"github.com/nickeldime/wealthos/internal/clients/fred"
	"github.com/nickeldime/wealthos/internal/clients/goldapi"
	"github.com/nickeldime/wealthos/internal/clients/yahoo"
	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
	"github.com/nickeldime/wealthos/internal/services/allocation"
	"github.com/nickeldime/wealthos/internal/services/plan"
	"github.com/nickeldime/wealthos/internal/services/portfolio"
	"github.com/nickeldime/wealthos/internal/services/pricing"
	"github.com/nickeldime/wealthos/internal/services/report"
	"github.com/nickeldime/wealthos/internal/storage"
)

// App holds all initialized services, clients, and storage. It is the
// shared core behind cmd/wealthos.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.StorageManager
	Resolver          interfaces.PriceResolver
	PortfolioService  interfaces.PortfolioService
	AllocationService interfaces.AllocationService
	PlanService       interfaces.PlanService
	ReportService     interfaces.ReportService
	StartupTime       time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()
	binDir := getBinaryDir()

	// Config resolution: explicit path, WEALTHOS_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("WEALTHOS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "wealthos.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/wealthos.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths against the binary directory for
	// self-contained operation.
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("config", configPath).
		Str("environment", config.Environment).
		Msg("Starting wealthos")

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	chains := buildProviderChains(config, logger)
	resolver := pricing.NewService(chains, storageManager.Prices(), common.NewWindows(config.Refresh, config.Staleness), config.Refresh.Concurrency, logger)

	portfolioService := portfolio.NewService(resolver, storageManager, logger)
	allocationService := allocation.NewService(logger)
	planService := plan.NewService(config.Contribution, logger)
	reportService := report.NewService(storageManager, config.Bands(), logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           storageManager,
		Resolver:          resolver,
		PortfolioService:  portfolioService,
		AllocationService: allocationService,
		PlanService:       planService,
		ReportService:     reportService,
		StartupTime:       startupStart,
	}
	a.scheduler = NewScheduler(a)

	logger.Info().Dur("elapsed", time.Since(startupStart)).Msg("Application initialized")
	return a, nil
}

// buildProviderChains assembles the per-class provider fallback order.
// Providers whose credentials are missing still join the chain — they fail
// with a disabled marker and the resolver moves on — but explicitly
// disabled providers are left out entirely.
func buildProviderChains(config *common.Config, logger *common.Logger) map[models.AssetClass][]interfaces.PriceProvider {
	clients := config.Clients

	var yahooClient interfaces.PriceProvider
	if !clients.Yahoo.Disabled {
		yahooClient = yahoo.NewClient(
			yahoo.WithBaseURL(clients.Yahoo.BaseURL),
			yahoo.WithRateLimit(clients.Yahoo.RateLimit),
			yahoo.WithTimeout(clients.Yahoo.GetTimeout()),
			yahoo.WithLogger(logger),
		)
	}
	var geckoClient interfaces.PriceProvider
	if !clients.CoinGecko.Disabled {
		geckoClient = coingecko.NewClient(
			coingecko.WithBaseURL(clients.CoinGecko.BaseURL),
			coingecko.WithRateLimit(clients.CoinGecko.RateLimit),
			coingecko.WithTimeout(clients.CoinGecko.GetTimeout()),
			coingecko.WithLogger(logger),
		)
	}
	var goldClient interfaces.PriceProvider
	if !clients.GoldAPI.Disabled {
		goldClient = goldapi.NewClient(clients.GoldAPI.APIKey,
			goldapi.WithBaseURL(clients.GoldAPI.BaseURL),
			goldapi.WithRateLimit(clients.GoldAPI.RateLimit),
			goldapi.WithTimeout(clients.GoldAPI.GetTimeout()),
			goldapi.WithLogger(logger),
		)
	}
	var fredClient interfaces.PriceProvider
	if !clients.FRED.Disabled {
		fredClient = fred.NewClient(clients.FRED.APIKey,
			fred.WithBaseURL(clients.FRED.BaseURL),
			fred.WithRateLimit(clients.FRED.RateLimit),
			fred.WithTimeout(clients.FRED.GetTimeout()),
			fred.WithLogger(logger),
		)
	}

	chains := make(map[models.AssetClass][]interfaces.PriceProvider)
	add := func(class models.AssetClass, providers ...interfaces.PriceProvider) {
		for _, p := range providers {
			if p != nil {
				chains[class] = append(chains[class], p)
			}
		}
	}

	// Metals fall back to Yahoo futures; crypto falls back to Yahoo pairs.
	var goldFutures, silverFutures, cryptoPairs interfaces.PriceProvider
	if yahooClient != nil {
		goldFutures = pricing.NewSymbolMapped(yahooClient, mapTo("GC=F"))
		silverFutures = pricing.NewSymbolMapped(yahooClient, mapTo("SI=F"))
		cryptoPairs = pricing.NewSymbolMapped(yahooClient, usdPair)
	}

	add(models.AssetClassEquities, yahooClient)
	add(models.AssetClassRealAssets, yahooClient)
	add(models.AssetClassCrypto, geckoClient, cryptoPairs)
	add(models.AssetClassGold, goldClient, goldFutures)
	add(models.AssetClassSilver, goldClient, silverFutures)
	add(models.AssetClassIndicator, yahooClient, fredClient)

	return chains
}

// mapTo translates every symbol to a fixed alias.
func mapTo(alias string) func(string) string {
	return func(string) string { return alias }
}

// usdPair maps a crypto ticker to Yahoo's -USD pair notation.
func usdPair(symbol string) string {
	if symbol == "" || strings.Contains(symbol, "-") {
		return symbol
	}
	return strings.ToUpper(symbol) + "-USD"
}

// RunCycle executes one full refresh: indicator warmup, valuation, drift
// analysis, contribution planning, history, and exports.
func (a *App) RunCycle(ctx context.Context) error {
	start := time.Now()

	// Warm the cache for pulse, treasury, and FRED series so the history
	// record and dashboard see current context. Per-class refresh windows
	// keep the quota-limited providers quiet on most cycles.
	indicators := make([]interfaces.ResolveRequest, 0, len(a.Config.PulseSymbols)+len(a.Config.FredSeries)+2)
	for _, sym := range a.Config.PulseSymbols {
		indicators = append(indicators, interfaces.ResolveRequest{Symbol: sym, Class: models.AssetClassIndicator})
	}
	for _, sym := range []string{"^TNX", "2YY=F"} {
		indicators = append(indicators, interfaces.ResolveRequest{Symbol: sym, Class: models.AssetClassIndicator})
	}
	for _, series := range a.Config.FredSeries {
		indicators = append(indicators, interfaces.ResolveRequest{Symbol: series, Class: models.AssetClassIndicator})
	}
	a.Resolver.ResolveAll(ctx, indicators)

	holdings := a.Config.BuildHoldings()
	valuation, err := a.PortfolioService.Valuate(ctx, holdings)
	if err != nil {
		return fmt.Errorf("valuation failed: %w", err)
	}

	snapshot := a.AllocationService.Analyze(valuation, a.Config.Bands())
	contribution := a.PlanService.PlanContribution(snapshot, decimal.NewFromFloat(a.Config.Contribution.Amount))

	if err := a.PortfolioService.RecordHistory(ctx, valuation); err != nil {
		a.Logger.Warn().Err(err).Msg("History recording failed")
	}

	if path := a.Config.Export.Workbook; path != "" {
		if err := a.ReportService.WriteWorkbook(ctx, path, valuation, snapshot, contribution); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Workbook export failed")
		}
	}
	if path := a.Config.Export.Snapshot; path != "" {
		if err := a.ReportService.WriteSnapshot(ctx, path, valuation, snapshot, contribution); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Snapshot export failed")
		}
	}

	a.Logger.Info().
		Str("net_worth", valuation.NetWorth.StringFixed(2)).
		Str("phase", string(contribution.Phase)).
		Dur("elapsed", time.Since(start)).
		Msg("Refresh cycle complete")
	return nil
}

// StartScheduler begins the periodic refresh. Safe to call once.
func (a *App) StartScheduler(ctx context.Context) error {
	return a.scheduler.Start(ctx)
}

// Shutdown stops the scheduler and closes storage.
func (a *App) Shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Storage close failed")
		}
	}
	a.Logger.Info().Msg("Shutdown complete")
}
