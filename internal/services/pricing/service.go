// Package pricing provides price resolution with provider fallback and
// durable cache degradation.
package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

// DefaultConcurrency bounds the ResolveAll fan-out when the configuration
// does not say otherwise.
const DefaultConcurrency = 4

// Service implements PriceResolver. Each asset class carries an ordered
// provider chain; the cache both short-circuits repeat lookups within a
// class's refresh interval and backstops provider outages.
type Service struct {
	chains      map[models.AssetClass][]interfaces.PriceProvider
	cache       interfaces.PriceStorage
	windows     common.Windows
	concurrency int
	logger      *common.Logger
	now         func() time.Time // injectable clock for testing
}

// NewService creates a new pricing service.
func NewService(chains map[models.AssetClass][]interfaces.PriceProvider, cache interfaces.PriceStorage, windows common.Windows, concurrency int, logger *common.Logger) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		chains:      chains,
		cache:       cache,
		windows:     windows,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve resolves one symbol through cache short-circuit, the class's
// provider chain, then cache fallback. Provider failures never surface as
// errors — the result degrades through fresh/stale/unavailable. The error
// return fires only when the cache itself is broken and no provider
// produced a price.
func (s *Service) Resolve(ctx context.Context, symbol string, class models.AssetClass) (*models.PricePoint, error) {
	entry, cacheErr := s.cache.Get(ctx, symbol)
	if cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Str("symbol", symbol).Msg("Price cache read failed")
	}

	// A recent enough cache entry suppresses the live fetch entirely. This
	// is what keeps GoldAPI inside its ~100 req/month quota. The freshness
	// marker still honors the class staleness window — a quota-limited
	// class can serve an aging price without a fetch, but never unmarked.
	if entry != nil {
		age := s.now().Sub(entry.LastFetched)
		if age < s.windows.RefreshInterval(class) {
			point := entry.Point
			point.CacheAge = age
			point.Freshness = models.FreshnessFresh
			if age > s.windows.StalenessWindow(class) {
				point.Freshness = models.FreshnessStale
			}
			return &point, nil
		}
	}

	point := s.fetchChain(ctx, symbol, class)
	if point != nil {
		if err := s.cache.Put(ctx, point); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Price cache write failed")
		}
		return point, nil
	}

	// Every provider failed: degrade to the cached value if one exists.
	if entry != nil {
		age := s.now().Sub(entry.LastFetched)
		point := entry.Point
		point.CacheAge = age
		if age <= s.windows.StalenessWindow(class) {
			point.Freshness = models.FreshnessFresh
		} else {
			point.Freshness = models.FreshnessStale
			s.logger.Warn().
				Str("symbol", symbol).
				Dur("age", age).
				Msg("Serving stale cached price")
		}
		return &point, nil
	}

	if cacheErr != nil {
		return nil, cacheErr
	}

	s.logger.Warn().Str("symbol", symbol).Msg("No price available from any source")
	return &models.PricePoint{
		Symbol:    symbol,
		Timestamp: s.now(),
		Freshness: models.FreshnessUnavailable,
	}, nil
}

// fetchChain walks the class's providers in order, returning the first
// successful fetch. Returns nil when the chain is empty or exhausted.
func (s *Service) fetchChain(ctx context.Context, symbol string, class models.AssetClass) *models.PricePoint {
	for _, provider := range s.chains[class] {
		point, err := provider.FetchPrice(ctx, symbol)
		if err == nil && point != nil {
			s.logger.Debug().
				Str("symbol", symbol).
				Str("source", provider.Name()).
				Msg("Price resolved")
			return point
		}
		logProviderFailure(s.logger, provider.Name(), symbol, err)
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// ResolveAll fans out across symbols with a bounded concurrency limit.
// Each symbol's provider chain stays sequential; only distinct symbols run
// in parallel. Every requested symbol appears in the result map.
func (s *Service) ResolveAll(ctx context.Context, reqs []interfaces.ResolveRequest) map[string]*models.PricePoint {
	results := make(map[string]*models.PricePoint, len(reqs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, s.concurrency)
	seen := make(map[string]bool, len(reqs))

	for _, req := range reqs {
		if req.Symbol == "" || seen[req.Symbol] {
			continue
		}
		seen[req.Symbol] = true

		wg.Add(1)
		go func(req interfaces.ResolveRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			point, err := s.Resolve(ctx, req.Symbol, req.Class)
			if err != nil {
				s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("Price resolution failed")
				point = &models.PricePoint{
					Symbol:    req.Symbol,
					Timestamp: s.now(),
					Freshness: models.FreshnessUnavailable,
				}
			}
			mu.Lock()
			results[req.Symbol] = point
			mu.Unlock()
		}(req)
	}

	wg.Wait()
	return results
}

// logProviderFailure logs at a level matching the failure kind: disabled
// providers are expected and stay at debug.
func logProviderFailure(logger *common.Logger, provider, symbol string, err error) {
	event := logger.Warn()
	var perr *models.ProviderError
	if errors.As(err, &perr) && perr.Kind == models.ProviderErrDisabled {
		event = logger.Debug()
	}
	event.Err(err).Str("provider", provider).Str("symbol", symbol).Msg("Provider fetch failed")
}

// Ensure interface compliance
var _ interfaces.PriceResolver = (*Service)(nil)
