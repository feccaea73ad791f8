// Package yahoo provides a price adapter backed by the Yahoo Finance
// chart API. It covers equities/ETFs, treasury yield symbols (^TNX,
// 2YY=F), metals futures (GC=F, SI=F), crypto pairs (BTC-USD) and FX
// pairs (AUDUSD=X) — the free fallback source for most provider chains.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the PriceProvider interface against Yahoo Finance.
type Client struct {
	baseURL    string
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

// NewClient creates a new Yahoo Finance client. No API key is required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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
func (c *Client) Name() string { return "yahoo" }

// chartResponse mirrors the subset of the chart endpoint we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrice retrieves the latest regular-market price for a symbol.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	if symbol == "" {
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, errors.New("empty symbol"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(symbol, models.ProviderErrTimeout, err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(symbol, models.ProviderErrNetwork, err)
	}
	// Yahoo rejects requests without a browser-ish agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; wealthos/"+common.GetVersion()+")")

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(symbol, classifyTransport(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, c.fail(symbol, models.ProviderErrRateLimit, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, c.fail(symbol, models.ProviderErrNetwork, fmt.Errorf("status %d", resp.StatusCode))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, c.fail(symbol, models.ProviderErrMalformed, err)
	}
	if chart.Chart.Error != nil {
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol,
			fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, c.fail(symbol, models.ProviderErrMalformed, errors.New("empty result"))
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, c.fail(symbol, models.ProviderErrMalformed, errors.New("no market price in response"))
	}

	ts := time.Unix(meta.RegularMarketTime, 0)
	if meta.RegularMarketTime == 0 {
		ts = time.Now()
	}
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	return &models.PricePoint{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency:  currency,
		Timestamp: ts,
		Source:    c.Name(),
		Freshness: models.FreshnessFresh,
	}, nil
}

func (c *Client) fail(symbol string, kind models.ProviderErrorKind, err error) *models.ProviderError {
	return &models.ProviderError{Provider: c.Name(), Symbol: symbol, Kind: kind, Err: err}
}

// classifyTransport maps a transport error to a provider failure kind.
func classifyTransport(err error) models.ProviderErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ProviderErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ProviderErrTimeout
	}
	return models.ProviderErrNetwork
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
