// Package coingecko provides a crypto price adapter for the CoinGecko
// simple-price API (free tier, no key).
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second — free tier is tight
)

// coinIDs maps common ticker symbols to CoinGecko API ids. Unknown
// symbols fall through to their lowercased form.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"XRP":   "ripple",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XLM":   "stellar",
	"XTZ":   "tezos",
	"DOGE":  "dogecoin",
	"CBETH": "coinbase-wrapped-staked-eth",
	"USDC":  "usd-coin",
	"DAI":   "dai",
	"VET":   "vechain",
	"GRT":   "the-graph",
	"SKL":   "skale",
	"MLN":   "melon",
	"AMP":   "amp-token",
}

// CoinID resolves a ticker symbol to its CoinGecko id.
func CoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// Client implements the PriceProvider interface against CoinGecko.
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

// NewClient creates a new CoinGecko client.
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
func (c *Client) Name() string { return "coingecko" }

// FetchPrice retrieves the USD price for a crypto symbol. Retries once on
// 429 after a short pause — the free tier throttles in bursts.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	if symbol == "" {
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, errors.New("empty symbol"))
	}

	id := CoinID(symbol)

	var lastErr *models.ProviderError
	for attempt := 0; attempt < 2; attempt++ {
		point, err := c.fetchOnce(ctx, symbol, id)
		if err == nil {
			return point, nil
		}
		if !errors.As(err, &lastErr) {
			return nil, err
		}
		if lastErr.Kind != models.ProviderErrRateLimit {
			return nil, lastErr
		}
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return nil, c.fail(symbol, models.ProviderErrTimeout, ctx.Err())
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, symbol, id string) (*models.PricePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(symbol, models.ProviderErrTimeout, err)
	}

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")
	reqURL := fmt.Sprintf("%s/api/v3/simple/price?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(symbol, models.ProviderErrNetwork, err)
	}

	c.logger.Debug().Str("symbol", symbol).Str("id", id).Msg("CoinGecko price request")

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

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, c.fail(symbol, models.ProviderErrRateLimit, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(symbol, models.ProviderErrNetwork, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, c.fail(symbol, models.ProviderErrMalformed, err)
	}

	entry, ok := body[id]
	if !ok {
		return nil, c.fail(symbol, models.ProviderErrUnknownSymbol, fmt.Errorf("id %q not in response", id))
	}
	usd, ok := entry["usd"]
	if !ok || usd <= 0 {
		return nil, c.fail(symbol, models.ProviderErrMalformed, errors.New("no usd price in response"))
	}

	return &models.PricePoint{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(usd),
		Currency:  "USD",
		Timestamp: time.Now(),
		Source:    c.Name(),
		Freshness: models.FreshnessFresh,
	}, nil
}

func (c *Client) fail(symbol string, kind models.ProviderErrorKind, err error) *models.ProviderError {
	return &models.ProviderError{Provider: c.Name(), Symbol: symbol, Kind: kind, Err: err}
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
