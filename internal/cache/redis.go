// Package cache provides an optional Redis-backed latest-price cache. A nil
// *LatestPrices is a valid no-op cache, so callers never branch on whether
// Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// LatestPrices stores the most recent observed price per symbol.
type LatestPrices struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedPrice struct {
	Price string    `json:"price"`
	TS    time.Time `json:"ts"`
}

// NewLatestPrices connects to Redis via URL. An empty URL yields a nil cache.
func NewLatestPrices(url string, ttl time.Duration) (*LatestPrices, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &LatestPrices{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Close releases the underlying connection pool.
func (c *LatestPrices) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Set records the latest price for symbol.
func (c *LatestPrices) Set(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload, err := json.Marshal(cachedPrice{Price: price.String(), TS: ts.UTC()})
	if err != nil {
		return fmt.Errorf("marshal cached price: %w", err)
	}
	return c.client.Set(ctx, key(symbol), payload, c.ttl).Err()
}

// Get returns the cached latest price for symbol; ok is false on a miss.
func (c *LatestPrices) Get(ctx context.Context, symbol string) (decimal.Decimal, time.Time, bool, error) {
	if c == nil || c.client == nil {
		return decimal.Decimal{}, time.Time{}, false, nil
	}

	raw, err := c.client.Get(ctx, key(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Decimal{}, time.Time{}, false, nil
		}
		return decimal.Decimal{}, time.Time{}, false, err
	}

	var cached cachedPrice
	if err := json.Unmarshal(raw, &cached); err != nil {
		return decimal.Decimal{}, time.Time{}, false, fmt.Errorf("unmarshal cached price: %w", err)
	}
	price, err := decimal.NewFromString(cached.Price)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, false, fmt.Errorf("parse cached price: %w", err)
	}
	return price, cached.TS, true, nil
}

func key(symbol string) string {
	return "price:latest:" + symbol
}
