package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

func seedHistory(t *testing.T, mem *storage.Memory, symbol string, points map[time.Duration]float64) storage.Asset {
	t.Helper()
	ctx := context.Background()
	asset, err := mem.UpsertAsset(ctx, symbol)
	require.NoError(t, err)
	for age, price := range points {
		ok, err := mem.InsertSample(ctx, asset.ID, frozenNow.Add(-age), decimal.NewFromFloat(price))
		require.NoError(t, err)
		require.True(t, ok)
	}
	return asset
}

func TestListRecentSamplesHonoursSince(t *testing.T) {
	mem := storage.NewMemory()
	seedHistory(t, mem, "BTC", map[time.Duration]float64{
		2 * time.Hour:    100.0,
		30 * time.Minute: 101.0,
		time.Minute:      102.0,
	})
	svc := newTestService(t, mem, &stubFetcher{})

	since := frozenNow.Add(-time.Hour)
	samples, err := svc.ListRecentSamples(context.Background(), "btc", &since)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, samples[0].TS.Before(samples[1].TS), "samples are ordered ascending")
}

func TestListRecentSamplesUnknownAsset(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})

	_, err := svc.ListRecentSamples(context.Background(), "XRP", nil)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestLatestPriceFallsBackToLedger(t *testing.T) {
	mem := storage.NewMemory()
	seedHistory(t, mem, "BTC", map[time.Duration]float64{
		time.Hour:   100.0,
		time.Minute: 105.5,
	})
	svc := newTestService(t, mem, &stubFetcher{})

	price, ts, err := svc.LatestPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(105.5)))
	assert.Equal(t, frozenNow.Add(-time.Minute), ts)
}

func TestLatestPriceNoSamples(t *testing.T) {
	mem := storage.NewMemory()
	_, err := mem.UpsertAsset(context.Background(), "BTC")
	require.NoError(t, err)
	svc := newTestService(t, mem, &stubFetcher{})

	_, _, err = svc.LatestPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestSummarizeComputesAggregates(t *testing.T) {
	mem := storage.NewMemory()
	seedHistory(t, mem, "BTC", map[time.Duration]float64{
		50 * time.Minute: 100.0,
		30 * time.Minute: 110.0,
		10 * time.Minute: 90.0,
		time.Minute:      104.0,
	})
	svc := newTestService(t, mem, &stubFetcher{})

	summary, err := svc.Summarize(context.Background(), "BTC", frozenNow.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Count)
	require.NotNil(t, summary.First)
	require.NotNil(t, summary.Last)
	require.NotNil(t, summary.Min)
	require.NotNil(t, summary.Max)
	require.NotNil(t, summary.Avg)
	assert.True(t, summary.First.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.Last.Equal(decimal.NewFromInt(104)))
	assert.True(t, summary.Min.Equal(decimal.NewFromInt(90)))
	assert.True(t, summary.Max.Equal(decimal.NewFromInt(110)))
	assert.True(t, summary.Avg.Equal(decimal.NewFromInt(101)))
}

func TestSummarizeEmptyWindow(t *testing.T) {
	mem := storage.NewMemory()
	seedHistory(t, mem, "BTC", map[time.Duration]float64{
		48 * time.Hour: 100.0,
	})
	svc := newTestService(t, mem, &stubFetcher{})

	summary, err := svc.Summarize(context.Background(), "BTC", frozenNow.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Count)
	assert.Nil(t, summary.First)
	assert.Nil(t, summary.Avg)
}

func TestCreateAssetValidatesSymbol(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})

	_, err := svc.CreateAsset(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	_, err = svc.CreateAsset(context.Background(), "THISSYMBOLISMUCHTOOLONG", nil)
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestCreateAssetConflict(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})

	name := "Bitcoin"
	asset, err := svc.CreateAsset(context.Background(), "btc", &name)
	require.NoError(t, err)
	assert.Equal(t, "BTC", asset.Symbol)
	require.NotNil(t, asset.Name)
	assert.Equal(t, "Bitcoin", *asset.Name)

	_, err = svc.CreateAsset(context.Background(), "BTC", nil)
	assert.ErrorIs(t, err, storage.ErrAssetExists)
}

func TestListRecentAlertsForSymbol(t *testing.T) {
	mem := storage.NewMemory()
	asset := seedHistory(t, mem, "BTC", map[time.Duration]float64{time.Minute: 100.0})
	svc := newTestService(t, mem, &stubFetcher{})

	for i := 0; i < 3; i++ {
		_, err := mem.InsertAlertEvent(context.Background(), storage.AlertEvent{
			AssetID:       asset.ID,
			TriggeredAt:   frozenNow.Add(-time.Duration(i) * time.Hour),
			WindowMinutes: 60,
			ChangePct:     decimal.NewFromInt(6),
		})
		require.NoError(t, err)
	}

	events, err := svc.ListRecentAlerts(context.Background(), "BTC", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].TriggeredAt.After(events[1].TriggeredAt), "most recent first")
}
