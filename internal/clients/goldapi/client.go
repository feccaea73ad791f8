// Package goldapi provides a precious-metals spot price adapter for
// GoldAPI.io. The free tier allows ~100 requests/month, so this client is
// expected to sit behind a long cache refresh interval.
package goldapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const (
	DefaultBaseURL   = "https://www.goldapi.io"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 1 // requests per second
)

// Sanity ranges per metal, USD/oz. Prices outside these bounds are
// rejected as malformed rather than cached (a bad quote poisoning the
// cache is worse than a missed fetch).
var sanityRanges = map[string][2]float64{
	"XAU": {1500, 15000},
	"XAG": {15, 300},
}

// MetalCode maps portfolio symbols to GoldAPI metal codes.
func MetalCode(symbol string) string {
	switch strings.ToUpper(symbol) {
	case "PHYS_GOLD", "GOLD", "XAU":
		return "XAU"
	case "PHYS_SILVER", "SILVER", "XAG":
		return "XAG"
	default:
		return ""
	}
}

// Client implements the PriceProvider interface against GoldAPI.io.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new GoldAPI client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider in PricePoint source tags.
func (c *Client) Name() string { return "goldapi" }

type spotResponse struct {
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Metal     string  `json:"metal"`
	Timestamp int64   `json:"timestamp"`
}

// FetchPrice retrieves the USD spot price for a metals symbol.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	if c.apiKey == "" {
		return nil, c.fail(symbol, models.ProviderErrDisabled, errors.New("no API key configured"))
	}

	metal := MetalCode(symbol)
	if metal == "" {
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, fmt.Errorf("not a metals symbol: %q", symbol))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(symbol, models.ProviderErrTimeout, err)
	}

	reqURL := fmt.Sprintf("%s/api/%s/USD", c.baseURL, metal)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(symbol, models.ProviderErrNetwork, err)
	}
	req.Header.Set("x-access-token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("metal", metal).Msg("GoldAPI spot request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := models.ProviderErrNetwork
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = models.ProviderErrTimeout
		}
		return nil, c.fail(symbol, kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		// 403 is GoldAPI's monthly-quota-exhausted response
		return nil, c.fail(symbol, models.ProviderErrRateLimit, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, c.fail(symbol, models.ProviderErrNetwork, fmt.Errorf("status %d", resp.StatusCode))
	}

	var spot spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&spot); err != nil {
		return nil, c.fail(symbol, models.ProviderErrMalformed, err)
	}

	bounds := sanityRanges[metal]
	if spot.Price < bounds[0] || spot.Price > bounds[1] {
		return nil, c.fail(symbol, models.ProviderErrMalformed,
			fmt.Errorf("implausible %s price %.2f (expected %.0f–%.0f)", metal, spot.Price, bounds[0], bounds[1]))
	}

	ts := time.Unix(spot.Timestamp, 0)
	if spot.Timestamp == 0 {
		ts = time.Now()
	}

	return &models.PricePoint{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(spot.Price),
		Currency:  "USD",
		Timestamp: ts,
		Source:    c.Name(),
		Freshness: models.FreshnessFresh,
	}, nil
}

func (c *Client) fail(symbol string, kind models.ProviderErrorKind, err error) *models.ProviderError {
	return &models.ProviderError{Provider: c.Name(), Symbol: symbol, Kind: kind, Err: err}
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
