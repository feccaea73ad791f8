// Package interfaces defines service contracts for wealthos
package interfaces

import (
	"context"

	"github.com/nickeldime/wealthos/internal/models"
)

// PriceProvider is a single external price source. Implementations fetch
// and normalize one symbol's price; they never write to the cache and
// surface failures as *models.ProviderError so the resolver can decide
// between the next provider and the cache fallback.
type PriceProvider interface {
	// Name identifies the provider in PricePoint.Source and logs.
	Name() string

	// FetchPrice retrieves the current price for a symbol.
	FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error)
}
