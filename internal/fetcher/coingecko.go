package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	simplePricePath = "/simple/price"
	marketChartPath = "/coins/%s/market_chart"
)

// upstreamIDs maps tracked symbols to CoinGecko identifiers. Unmapped
// symbols fail before any network call.
var upstreamIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
}

var defaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// CoinGeckoOptions parameterise the quote provider adapter.
type CoinGeckoOptions struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	RetryDelays []time.Duration
}

// CoinGecko fetches spot and historical prices from the CoinGecko API.
type CoinGecko struct {
	opts    CoinGeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	delays  []time.Duration

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCoinGecko constructs the adapter.
func NewCoinGecko(opts CoinGeckoOptions, logger zerolog.Logger) *CoinGecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	delays := opts.RetryDelays
	if delays == nil {
		delays = defaultRetryDelays
	}

	return &CoinGecko{
		opts:    opts,
		logger:  logger.With().Str("component", "price_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		delays:  delays,
		sleep:   sleepContext,
	}
}

// FetchPrice retrieves the current USD price for symbol, retrying transient
// upstream failures with the configured backoff delays.
func (c *CoinGecko) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, ok := upstreamIDs[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	endpoint := fmt.Sprintf("%s%s?ids=%s&vs_currencies=usd", c.baseURL, simplePricePath, url.QueryEscape(id))

	var body []byte
	err := c.withRetries(ctx, endpoint, &body)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode price response: %w", err)
	}

	quote, ok := payload[id]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("price response missing id %q", id)
	}
	usd, ok := quote["usd"]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("price response missing usd quote for %q", id)
	}

	return decimal.NewFromFloat(usd), nil
}

// FetchRange retrieves (timestamp, price) pairs covering the trailing
// lookback window, discarding points older than the cutoff.
func (c *CoinGecko) FetchRange(ctx context.Context, symbol string, lookback time.Duration) ([]PricePoint, error) {
	id, ok := upstreamIDs[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive")
	}

	days := int(math.Ceil(lookback.Hours() / 24))
	if days < 1 {
		days = 1
	}
	endpoint := fmt.Sprintf("%s"+marketChartPath+"?vs_currency=usd&days=%d", c.baseURL, url.PathEscape(id), days)

	var body []byte
	if err := c.withRetries(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	var payload struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode market chart response: %w", err)
	}

	cutoff := time.Now().UTC().Add(-lookback)
	points := make([]PricePoint, 0, len(payload.Prices))
	for _, pair := range payload.Prices {
		ts := time.UnixMilli(int64(pair[0])).UTC()
		if ts.Before(cutoff) {
			continue
		}
		points = append(points, PricePoint{TS: ts, Price: decimal.NewFromFloat(pair[1])})
	}
	return points, nil
}

// withRetries issues GET requests until success, a non-retriable status, or
// exhausted delays. The last error is surfaced after the final attempt.
func (c *CoinGecko) withRetries(ctx context.Context, endpoint string, out *[]byte) error {
	var lastErr error
	for attempt := 0; attempt <= len(c.delays); attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.delays[attempt-1]); err != nil {
				return err
			}
			c.logger.Debug().Int("attempt", attempt+1).Msg("retrying upstream request")
		}

		body, retriable, err := c.get(ctx, endpoint)
		if err == nil {
			*out = body
			return nil
		}
		lastErr = err
		if !retriable {
			return err
		}
	}
	return lastErr
}

func (c *CoinGecko) get(ctx context.Context, endpoint string) (body []byte, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode == http.StatusOK {
		return payload, false, nil
	}

	retriable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return nil, retriable, httpError(resp.StatusCode, payload)
}

func httpError(status int, payload []byte) error {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed != "" {
		return fmt.Errorf("upstream error (%d): %s", status, trimmed)
	}
	return fmt.Errorf("upstream error (%d)", status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var (
	_ PriceFetcher = (*CoinGecko)(nil)
	_ RangeFetcher = (*CoinGecko)(nil)
)
