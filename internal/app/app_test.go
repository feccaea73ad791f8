package app

import (
	"testing"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/models"
)

func TestUsdPair(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC", "BTC-USD"},
		{"eth", "ETH-USD"},
		{"BTC-USD", "BTC-USD"}, // already a pair
		{"", ""},
	}
	for _, tt := range tests {
		if got := usdPair(tt.in); got != tt.want {
			t.Errorf("usdPair(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildProviderChains(t *testing.T) {
	config := common.NewDefaultConfig()
	logger := common.NewSilentLogger()

	chains := buildProviderChains(config, logger)

	if got := len(chains[models.AssetClassEquities]); got != 1 {
		t.Fatalf("equities chain length = %d, want 1", got)
	}
	if name := chains[models.AssetClassEquities][0].Name(); name != "yahoo" {
		t.Errorf("equities provider = %q, want yahoo", name)
	}

	// Crypto: coingecko first, then yahoo pairs.
	crypto := chains[models.AssetClassCrypto]
	if len(crypto) != 2 {
		t.Fatalf("crypto chain length = %d, want 2", len(crypto))
	}
	if crypto[0].Name() != "coingecko" {
		t.Errorf("crypto primary = %q, want coingecko", crypto[0].Name())
	}

	// Metals: goldapi stays in the chain even without a key (it fails as
	// disabled and the resolver moves on), followed by futures fallback.
	gold := chains[models.AssetClassGold]
	if len(gold) != 2 {
		t.Fatalf("gold chain length = %d, want 2", len(gold))
	}
	if gold[0].Name() != "goldapi" {
		t.Errorf("gold primary = %q, want goldapi", gold[0].Name())
	}

	// Indicators hit yahoo first, FRED second.
	indicators := chains[models.AssetClassIndicator]
	if len(indicators) != 2 {
		t.Fatalf("indicator chain length = %d, want 2", len(indicators))
	}
}

func TestBuildProviderChains_DisabledProviderLeftOut(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Clients.GoldAPI.Disabled = true
	logger := common.NewSilentLogger()

	chains := buildProviderChains(config, logger)

	gold := chains[models.AssetClassGold]
	if len(gold) != 1 {
		t.Fatalf("gold chain length = %d, want 1 (futures fallback only)", len(gold))
	}
	if gold[0].Name() != "yahoo" {
		t.Errorf("gold fallback = %q, want yahoo", gold[0].Name())
	}
}
