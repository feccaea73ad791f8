// Package fred provides an adapter for FRED (Federal Reserve Economic
// Data) series. Indicator symbols are FRED series ids; the latest numeric
// observation becomes the resolved price point.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

const (
	DefaultBaseURL   = "https://api.stlouisfed.org"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// Observation is one dated value within a series.
type Observation struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Client implements the PriceProvider interface against the FRED API.
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

// NewClient creates a new FRED client.
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
func (c *Client) Name() string { return "fred" }

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetSeries fetches up to limit most-recent observations for a series,
// oldest first. Missing values (".") are dropped.
func (c *Client) GetSeries(ctx context.Context, seriesID string, limit int) ([]Observation, error) {
	if c.apiKey == "" {
		return nil, c.fail(seriesID, models.ProviderErrDisabled, errors.New("no API key configured"))
	}
	if seriesID == "" {
		return nil, c.fail(seriesID, models.ProviderErrUnknownSymbol, errors.New("empty series id"))
	}
	if limit <= 0 {
		limit = 12
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(seriesID, models.ProviderErrTimeout, err)
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(seriesID, models.ProviderErrNetwork, err)
	}

	c.logger.Debug().Str("series", seriesID).Msg("FRED observations request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := models.ProviderErrNetwork
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = models.ProviderErrTimeout
		}
		return nil, c.fail(seriesID, kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, c.fail(seriesID, models.ProviderErrRateLimit, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, c.fail(seriesID, models.ProviderErrUnknownSymbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, c.fail(seriesID, models.ProviderErrNetwork, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, c.fail(seriesID, models.ProviderErrMalformed, err)
	}

	out := make([]Observation, 0, len(body.Observations))
	for i := len(body.Observations) - 1; i >= 0; i-- {
		obs := body.Observations[i]
		if obs.Value == "" || obs.Value == "." {
			continue
		}
		val, err := decimal.NewFromString(obs.Value)
		if err != nil {
			continue
		}
		out = append(out, Observation{Date: obs.Date, Value: val})
	}
	return out, nil
}

// FetchPrice resolves a series id to its latest observation.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	series, err := c.GetSeries(ctx, symbol, 5)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, c.fail(symbol, models.ProviderErrMalformed, errors.New("series has no numeric observations"))
	}

	latest := series[len(series)-1]
	ts, perr := time.Parse("2006-01-02", latest.Date)
	if perr != nil {
		ts = time.Now()
	}

	return &models.PricePoint{
		Symbol:    symbol,
		Price:     latest.Value,
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
