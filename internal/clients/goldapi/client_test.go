package goldapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nickeldime/wealthos/internal/models"
)

func TestMetalCode(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"PHYS_GOLD", "XAU"},
		{"phys_silver", "XAG"},
		{"GOLD", "XAU"},
		{"XAG", "XAG"},
		{"AAPL", ""},
	}
	for _, tt := range tests {
		if got := MetalCode(tt.symbol); got != tt.expected {
			t.Errorf("MetalCode(%s): expected %q, got %q", tt.symbol, tt.expected, got)
		}
	}
}

func TestFetchPrice_ParsesResponse(t *testing.T) {
	var capturedPath, capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.Header.Get("x-access-token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price":2655.40,"currency":"USD","metal":"XAU","timestamp":1756500000}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	point, err := client.FetchPrice(context.Background(), "PHYS_GOLD")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}

	if capturedPath != "/api/XAU/USD" {
		t.Errorf("expected path /api/XAU/USD, got %s", capturedPath)
	}
	if capturedToken != "test-key" {
		t.Errorf("expected access token header, got %q", capturedToken)
	}
	if point.Symbol != "PHYS_GOLD" {
		t.Errorf("expected symbol preserved as PHYS_GOLD, got %s", point.Symbol)
	}
	if !point.Price.Equal(decimal.NewFromFloat(2655.40)) {
		t.Errorf("expected price 2655.40, got %s", point.Price)
	}
	if point.Source != "goldapi" {
		t.Errorf("expected source goldapi, got %s", point.Source)
	}
}

func TestFetchPrice_NoAPIKeyIsDisabled(t *testing.T) {
	client := NewClient("")
	_, err := client.FetchPrice(context.Background(), "PHYS_GOLD")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrDisabled {
		t.Errorf("expected kind disabled, got %s", perr.Kind)
	}
}

func TestFetchPrice_NonMetalSymbol(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.FetchPrice(context.Background(), "AAPL")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrUnknownSymbol {
		t.Errorf("expected kind unknown_symbol, got %s", perr.Kind)
	}
}

func TestFetchPrice_SanityRange(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"gold too low", `{"price":42.0,"metal":"XAU"}`},
		{"gold too high", `{"price":99999.0,"metal":"XAU"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := client.FetchPrice(context.Background(), "PHYS_GOLD")
			var perr *models.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Kind != models.ProviderErrMalformed {
				t.Errorf("expected kind malformed, got %s", perr.Kind)
			}
		})
	}
}

func TestFetchPrice_SilverInRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":31.25,"currency":"USD","metal":"XAG"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	point, err := client.FetchPrice(context.Background(), "PHYS_SILVER")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if !point.Price.Equal(decimal.NewFromFloat(31.25)) {
		t.Errorf("expected price 31.25, got %s", point.Price)
	}
}

func TestFetchPrice_QuotaExhausted(t *testing.T) {
	// GoldAPI returns 403 when the monthly quota runs out
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FetchPrice(context.Background(), "PHYS_GOLD")
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != models.ProviderErrRateLimit {
		t.Errorf("expected kind rate_limit, got %s", perr.Kind)
	}
}
