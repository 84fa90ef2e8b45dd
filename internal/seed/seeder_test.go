package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

var frozenNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestSeeder(t *testing.T, mem *storage.Memory) *Seeder {
	t.Helper()
	seeder := NewSeeder(mem, mem, Options{Hours: 168, IntervalSeconds: 300}, zerolog.Nop())
	seeder.now = func() time.Time { return frozenNow }
	return seeder
}

func TestSeedBackfillsRequestedCoverage(t *testing.T) {
	mem := storage.NewMemory()
	seeder := newTestSeeder(t, mem)

	hours, step := 24, 300
	inserted, err := seeder.Seed(context.Background(), "btc", &hours, &step)
	require.NoError(t, err)
	// 24h at 5m cadence, both endpoints inclusive.
	assert.Equal(t, 24*3600/300+1, inserted)

	asset, err := mem.GetAsset(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, asset)

	samples, err := mem.ListSamples(context.Background(), asset.ID, nil)
	require.NoError(t, err)
	require.Len(t, samples, inserted)
	assert.Equal(t, frozenNow.Add(-24*time.Hour), samples[0].TS)
	assert.Equal(t, frozenNow, samples[len(samples)-1].TS)
	for _, sample := range samples {
		assert.True(t, sample.Price.IsPositive(), "seeded prices stay above the floor")
	}
}

func TestSeedIsIdempotentForCoveredWindows(t *testing.T) {
	mem := storage.NewMemory()
	seeder := newTestSeeder(t, mem)

	hours, step := 24, 300
	inserted, err := seeder.Seed(context.Background(), "BTC", &hours, &step)
	require.NoError(t, err)
	require.Positive(t, inserted)

	again, err := seeder.Seed(context.Background(), "BTC", &hours, &step)
	require.NoError(t, err)
	assert.Equal(t, 0, again, "re-seeding an already covered window inserts nothing")
}

func TestSeedExtendsWhenCoverageIsShort(t *testing.T) {
	mem := storage.NewMemory()
	seeder := newTestSeeder(t, mem)

	short, step := 6, 300
	first, err := seeder.Seed(context.Background(), "BTC", &short, &step)
	require.NoError(t, err)
	require.Positive(t, first)

	longer := 24
	second, err := seeder.Seed(context.Background(), "BTC", &longer, &step)
	require.NoError(t, err)
	assert.Positive(t, second, "a wider window than current coverage must backfill")
}

func TestSeedIsDeterministicPerSymbol(t *testing.T) {
	run := func() []string {
		mem := storage.NewMemory()
		seeder := newTestSeeder(t, mem)

		hours, step := 6, 300
		_, err := seeder.Seed(context.Background(), "ETH", &hours, &step)
		require.NoError(t, err)

		asset, err := mem.GetAsset(context.Background(), "ETH")
		require.NoError(t, err)
		samples, err := mem.ListSamples(context.Background(), asset.ID, nil)
		require.NoError(t, err)

		prices := make([]string, len(samples))
		for i, sample := range samples {
			prices[i] = sample.Price.String()
		}
		return prices
	}

	assert.Equal(t, run(), run(), "identical symbol and window must reproduce the series")
}

func TestSeedRejectsNonPositiveParameters(t *testing.T) {
	mem := storage.NewMemory()
	seeder := newTestSeeder(t, mem)

	bad := 0
	_, err := seeder.Seed(context.Background(), "BTC", &bad, nil)
	assert.Error(t, err)

	_, err = seeder.Seed(context.Background(), "BTC", nil, &bad)
	assert.Error(t, err)
}
