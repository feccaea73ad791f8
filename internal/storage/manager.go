// Package storage provides the top-level StorageManager that owns the
// durable price cache and net-worth history.
package storage

import (
	"fmt"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/storage/badger"
)

// Manager implements interfaces.StorageManager on a single BadgerHold store.
type Manager struct {
	store   *badger.Store
	prices  interfaces.PriceStorage
	history interfaces.HistoryStorage
	logger  *common.Logger
}

// NewManager opens the durable store and wires the typed storages.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:   store,
		prices:  badger.NewPriceStorage(store, logger),
		history: badger.NewHistoryStorage(store, logger),
		logger:  logger,
	}, nil
}

func (m *Manager) Prices() interfaces.PriceStorage {
	return m.prices
}

func (m *Manager) History() interfaces.HistoryStorage {
	return m.history
}

func (m *Manager) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Ensure interface compliance
var _ interfaces.StorageManager = (*Manager)(nil)
