package interfaces

import (
	"context"

	"github.com/nickeldime/wealthos/internal/models"
)

// PriceStorage is the durable symbol-keyed price cache.
type PriceStorage interface {
	// Get returns the cache entry for a symbol, or (nil, nil) when absent.
	// Absence is a valid result, not an error.
	Get(ctx context.Context, symbol string) (*models.CacheEntry, error)

	// Put stores a price point write-through. Concurrent writes for the
	// same symbol resolve last-writer-wins by PricePoint timestamp: an
	// entry with a later timestamp is never overwritten by an earlier one.
	Put(ctx context.Context, point *models.PricePoint) error

	// All returns every cached entry (export/diagnostics).
	All(ctx context.Context) ([]*models.CacheEntry, error)
}

// HistoryStorage is the append-only net-worth history.
type HistoryStorage interface {
	// Append merges a refresh result into today's record (OHLC update) or
	// creates a new day. Records for past days are never rewritten.
	Append(ctx context.Context, rec *models.NetWorthRecord) error

	// List returns records in date order, oldest first.
	List(ctx context.Context) ([]*models.NetWorthRecord, error)

	// Latest returns the most recent record, or nil when history is empty.
	Latest(ctx context.Context) (*models.NetWorthRecord, error)
}

// StorageManager bundles the durable stores and owns their lifecycle.
type StorageManager interface {
	Prices() PriceStorage
	History() HistoryStorage
	Close() error
}
