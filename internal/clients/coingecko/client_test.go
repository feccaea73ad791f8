package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/models"
)

func TestCoinID(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"BTC", "bitcoin"},
		{"btc", "bitcoin"},
		{"ETH", "ethereum"},
		{"CBETH", "coinbase-wrapped-staked-eth"},
		{"NEWCOIN", "newcoin"}, // unmapped falls through lowercased
	}
	for _, tt := range tests {
		if got := CoinID(tt.symbol); got != tt.expected {
			t.Errorf("CoinID(%s): expected %s, got %s", tt.symbol, tt.expected, got)
		}
	}
}

func TestFetchPrice_ParsesResponse(t *testing.T) {
	var capturedQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":64123.55}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	point, err := client.FetchPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}

	if capturedQuery != "ids=bitcoin&vs_currencies=usd" {
		t.Errorf("unexpected query: %s", capturedQuery)
	}
	if point.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %s", point.Symbol)
	}
	if !point.Price.Equal(decimal.NewFromFloat(64123.55)) {
		t.Errorf("expected price 64123.55, got %s", point.Price)
	}
	if point.Source != "coingecko" {
		t.Errorf("expected source coingecko, got %s", point.Source)
	}
	if point.Freshness != models.FreshnessFresh {
		t.Errorf("expected freshness fresh, got %s", point.Freshness)
	}
}

func TestFetchPrice_RetriesOnceOnRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ethereum":{"usd":3400.10}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	point, err := client.FetchPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("FetchPrice failed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls (one retry), got %d", calls)
	}
	if !point.Price.Equal(decimal.NewFromFloat(3400.10)) {
		t.Errorf("expected price 3400.10, got %s", point.Price)
	}
}

func TestFetchPrice_RateLimitExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchPrice(context.Background(), "BTC")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrRateLimit {
		t.Errorf("expected kind rate_limit, got %s", perr.Kind)
	}
}

func TestFetchPrice_UnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CoinGecko returns an empty object for unknown ids
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchPrice(context.Background(), "NOTACOIN")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrUnknownSymbol {
		t.Errorf("expected kind unknown_symbol, got %s", perr.Kind)
	}
}

func TestFetchPrice_MissingUSDPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchPrice(context.Background(), "BTC")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrMalformed {
		t.Errorf("expected kind malformed, got %s", perr.Kind)
	}
}

func TestFetchPrice_EmptySymbol(t *testing.T) {
	client := NewClient()
	_, err := client.FetchPrice(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty symbol")
	}
}
