package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambarczewski00/telemetry-board/internal/alert"
	"github.com/adambarczewski00/telemetry-board/internal/fetcher"
	"github.com/adambarczewski00/telemetry-board/internal/retention"
	"github.com/adambarczewski00/telemetry-board/internal/runner"
	"github.com/adambarczewski00/telemetry-board/internal/schedule"
	"github.com/adambarczewski00/telemetry-board/internal/seed"
	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

var frozenNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func (s *stubFetcher) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	price, ok := s.prices[symbol]
	if !ok {
		return decimal.Decimal{}, errors.New("unexpected symbol")
	}
	return price, nil
}

func newTestService(t *testing.T, mem *storage.Memory, prices *stubFetcher) *Service {
	t.Helper()

	logger := zerolog.Nop()
	engine := alert.NewEngine(mem, mem, mem, nil, alert.Defaults{WindowMinutes: 60, ThresholdPct: 5.0}, nil, logger)
	pruner := retention.NewPruner(mem, 30, logger)
	seeder := seed.NewSeeder(mem, mem, seed.Options{Hours: 168, IntervalSeconds: 300}, logger)

	svc := New(mem, mem, mem, prices, nil, engine, pruner, seeder, nil, nil, logger)
	svc.now = func() time.Time { return frozenNow }
	return svc
}

func TestFetchPriceRecordsSample(t *testing.T) {
	mem := storage.NewMemory()
	fetch := &stubFetcher{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromFloat(50123.45)}}
	svc := newTestService(t, mem, fetch)

	price, err := svc.FetchPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(50123.45)))

	asset, err := mem.GetAsset(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, asset, "the asset is auto-created on first fetch")

	samples, err := mem.ListSamples(context.Background(), asset.ID, nil)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, frozenNow, samples[0].TS)
}

func TestFetchPriceAbsorbsDuplicateTimestamps(t *testing.T) {
	mem := storage.NewMemory()
	fetch := &stubFetcher{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(100)}}
	svc := newTestService(t, mem, fetch)

	_, err := svc.FetchPrice(context.Background(), "BTC")
	require.NoError(t, err)

	// Same frozen clock, so the second sample collides on (asset, ts).
	_, err = svc.FetchPrice(context.Background(), "BTC")
	require.NoError(t, err)

	asset, err := mem.GetAsset(context.Background(), "BTC")
	require.NoError(t, err)
	samples, err := mem.ListSamples(context.Background(), asset.ID, nil)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestFetchPriceSurfacesUpstreamErrors(t *testing.T) {
	mem := storage.NewMemory()
	sentinel := errors.New("upstream down")
	svc := newTestService(t, mem, &stubFetcher{err: sentinel})

	_, err := svc.FetchPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, sentinel)

	asset, err := mem.GetAsset(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Nil(t, asset, "a failed fetch must not create the asset")
}

type stubRangeFetcher struct {
	points []fetcher.PricePoint
	err    error
}

func (s *stubRangeFetcher) FetchRange(ctx context.Context, symbol string, lookback time.Duration) ([]fetcher.PricePoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

func TestBackfillHistoryInsertsFetchedPoints(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})
	svc.ranges = &stubRangeFetcher{points: []fetcher.PricePoint{
		{TS: frozenNow.Add(-2 * time.Hour), Price: decimal.NewFromInt(100)},
		{TS: frozenNow.Add(-time.Hour), Price: decimal.NewFromInt(101)},
	}}

	inserted, err := svc.BackfillHistory(context.Background(), "btc", 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Overlapping re-run absorbs the duplicates.
	inserted, err = svc.BackfillHistory(context.Background(), "BTC", 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}

func TestBackfillHistoryWithoutRangeSource(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})

	_, err := svc.BackfillHistory(context.Background(), "BTC", time.Hour)
	assert.Error(t, err)
}

func TestRegisterHandlersDispatch(t *testing.T) {
	mem := storage.NewMemory()
	fetch := &stubFetcher{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(100)}}
	svc := newTestService(t, mem, fetch)

	r := runner.New(nil, zerolog.Nop())
	svc.RegisterHandlers(r)

	ctx := context.Background()
	require.NoError(t, r.RunNow(ctx, schedule.TaskFetchPrice, "BTC"))
	assert.Equal(t, 1, fetch.calls)

	require.NoError(t, r.RunNow(ctx, schedule.TaskComputeAlerts, "BTC", "60", "5.0"))
	require.NoError(t, r.RunNow(ctx, schedule.TaskPruneOldPrices, "30"))
	require.NoError(t, r.RunNow(ctx, schedule.TaskSeedMockPrices, "ETH", "6", "300"))

	asset, err := mem.GetAsset(ctx, "ETH")
	require.NoError(t, err)
	require.NotNil(t, asset)
	samples, err := mem.ListSamples(ctx, asset.ID, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, samples, "seed task should backfill history")
}

func TestRegisterHandlersValidateArgs(t *testing.T) {
	mem := storage.NewMemory()
	svc := newTestService(t, mem, &stubFetcher{})

	r := runner.New(nil, zerolog.Nop())
	svc.RegisterHandlers(r)

	ctx := context.Background()
	assert.Error(t, r.RunNow(ctx, schedule.TaskFetchPrice))
	assert.Error(t, r.RunNow(ctx, schedule.TaskComputeAlerts))
	assert.Error(t, r.RunNow(ctx, schedule.TaskComputeAlerts, "BTC", "not-a-number"))
	assert.Error(t, r.RunNow(ctx, schedule.TaskPruneOldPrices, "not-a-number"))
	assert.Error(t, r.RunNow(ctx, schedule.TaskSeedMockPrices))
}
