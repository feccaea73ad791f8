package pricing

import (
	"context"

	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

// mappedProvider translates portfolio symbols into another provider's
// symbol space before delegating. It lets Yahoo futures back up the metals
// chain (PHYS_GOLD → GC=F) and Yahoo pairs back up crypto (BTC → BTC-USD)
// while the rest of the pipeline keeps the portfolio symbol.
type mappedProvider struct {
	inner     interfaces.PriceProvider
	translate func(string) string
}

// NewSymbolMapped wraps a provider with a symbol translation.
func NewSymbolMapped(inner interfaces.PriceProvider, translate func(string) string) interfaces.PriceProvider {
	return &mappedProvider{inner: inner, translate: translate}
}

func (m *mappedProvider) Name() string { return m.inner.Name() }

func (m *mappedProvider) FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	mapped := m.translate(symbol)
	if mapped == "" {
		return nil, &models.ProviderError{
			Provider: m.inner.Name(),
			Symbol:   symbol,
			Kind:     models.ProviderErrUnknownSymbol,
		}
	}
	point, err := m.inner.FetchPrice(ctx, mapped)
	if err != nil {
		return nil, err
	}
	// The cache and valuation key on the portfolio symbol, not the
	// provider's alias.
	point.Symbol = symbol
	return point, nil
}

var _ interfaces.PriceProvider = (*mappedProvider)(nil)
