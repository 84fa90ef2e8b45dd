package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLatestPricesEmptyURLIsNilCache(t *testing.T) {
	cache, err := NewLatestPrices("", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, cache)
}

func TestNewLatestPricesRejectsBadURL(t *testing.T) {
	_, err := NewLatestPrices("not-a-redis-url", time.Minute)
	assert.Error(t, err)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *LatestPrices
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "BTC", decimal.NewFromInt(100), time.Now()))

	_, _, ok, err := cache.Get(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, cache.Close())
}
