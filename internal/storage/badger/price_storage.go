package badger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const priceLockStripes = 32

type priceStorage struct {
	store  *Store
	logger *common.Logger

	// Striped per-symbol locks serialize the read-compare-write in Put so
	// concurrent refreshes for the same symbol resolve last-writer-wins by
	// price timestamp rather than by store arrival order.
	locks [priceLockStripes]sync.Mutex
}

// NewPriceStorage creates a new PriceStorage backed by BadgerHold.
func NewPriceStorage(store *Store, logger *common.Logger) *priceStorage {
	return &priceStorage{store: store, logger: logger}
}

func (s *priceStorage) lockFor(symbol string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return &s.locks[h.Sum32()%priceLockStripes]
}

func (s *priceStorage) Get(_ context.Context, symbol string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.store.db.Get(symbol, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached price for '%s': %w", symbol, err)
	}
	return &entry, nil
}

func (s *priceStorage) Put(_ context.Context, point *models.PricePoint) error {
	if point == nil || point.Symbol == "" {
		return fmt.Errorf("cannot cache price point without a symbol")
	}

	mu := s.lockFor(point.Symbol)
	mu.Lock()
	defer mu.Unlock()

	var existing models.CacheEntry
	err := s.store.db.Get(point.Symbol, &existing)
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to read cached price for '%s': %w", point.Symbol, err)
	}
	if err == nil && existing.Point.Timestamp.After(point.Timestamp) {
		s.logger.Debug().Str("symbol", point.Symbol).Msg("Skipped cache write behind newer entry")
		return nil
	}

	entry := models.CacheEntry{
		Symbol:      point.Symbol,
		Point:       *point,
		LastFetched: time.Now(),
	}
	if err := s.store.db.Upsert(entry.Symbol, &entry); err != nil {
		return fmt.Errorf("failed to cache price for '%s': %w", point.Symbol, err)
	}
	s.logger.Debug().Str("symbol", point.Symbol).Str("source", point.Source).Msg("Price cached")
	return nil
}

func (s *priceStorage) All(_ context.Context) ([]*models.CacheEntry, error) {
	var entries []models.CacheEntry
	if err := s.store.db.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list cached prices: %w", err)
	}
	out := make([]*models.CacheEntry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out, nil
}

// Ensure interface compliance
var _ interfaces.PriceStorage = (*priceStorage)(nil)
