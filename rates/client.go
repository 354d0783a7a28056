package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rustyeddy/fxjournal/market"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public exchangerate-api v6 endpoint.
	DefaultBaseURL = "https://v6.exchangerate-api.com"
	DefaultTimeout = 10 * time.Second
)

// APIError is a failure reported by the rate service. Type carries the
// service's "error-type" string unchanged, e.g. "unsupported-code".
type APIError struct {
	Type string
}

func (e *APIError) Error() string {
	return e.Type
}

// Client fetches conversion rates over HTTP. It implements
// market.RateProvider and performs exactly one request per FetchRates.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a rate client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// latestResponse is the body of GET /v6/{key}/latest/{base}.
type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type,omitempty"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// FetchRates returns every rate the service knows relative to base.
func (c *Client) FetchRates(ctx context.Context, base string) (market.RateTable, error) {
	if base == "" {
		return nil, fmt.Errorf("base currency is required")
	}

	apiURL := fmt.Sprintf("%s/v6/%s/latest/%s", c.baseURL, url.PathEscape(c.apiKey), url.PathEscape(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.log.Debug("fetching rates", zap.String("base", base))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("rate request failed", zap.String("base", base), zap.Error(err))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out latestResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.Result != "success" {
		errType := out.ErrorType
		if errType == "" {
			errType = fmt.Sprintf("http-%d", resp.StatusCode)
		}
		c.log.Warn("rate service error", zap.String("base", base), zap.String("error_type", errType))
		return nil, &APIError{Type: errType}
	}

	c.log.Debug("fetched rates", zap.String("base", out.BaseCode), zap.Int("count", len(out.ConversionRates)))
	return market.RateTable(out.ConversionRates), nil
}
