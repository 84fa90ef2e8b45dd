package retention

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

var frozenNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestPruner(t *testing.T, mem *storage.Memory, days int) *Pruner {
	t.Helper()
	pruner := NewPruner(mem, days, zerolog.Nop())
	pruner.now = func() time.Time { return frozenNow }
	return pruner
}

func seedAged(t *testing.T, mem *storage.Memory, ages ...time.Duration) storage.Asset {
	t.Helper()
	ctx := context.Background()
	asset, err := mem.UpsertAsset(ctx, "BTC")
	require.NoError(t, err)
	for _, age := range ages {
		ok, err := mem.InsertSample(ctx, asset.ID, frozenNow.Add(-age), decimal.NewFromInt(100))
		require.NoError(t, err)
		require.True(t, ok)
	}
	return asset
}

func TestPruneDeletesOnlyExpiredSamples(t *testing.T) {
	mem := storage.NewMemory()
	asset := seedAged(t, mem,
		40*24*time.Hour,
		31*24*time.Hour,
		24*time.Hour,
	)
	pruner := newTestPruner(t, mem, 30)

	deleted, err := pruner.Prune(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := mem.ListSamples(context.Background(), asset.ID, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, frozenNow.Add(-24*time.Hour), remaining[0].TS)
}

func TestPruneIsIdempotent(t *testing.T) {
	mem := storage.NewMemory()
	seedAged(t, mem, 40*24*time.Hour, 24*time.Hour)
	pruner := newTestPruner(t, mem, 30)

	deleted, err := pruner.Prune(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = pruner.Prune(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestPruneOverrideDays(t *testing.T) {
	mem := storage.NewMemory()
	seedAged(t, mem, 40*24*time.Hour, 10*24*time.Hour)
	pruner := newTestPruner(t, mem, 30)

	days := 7
	deleted, err := pruner.Prune(context.Background(), &days)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestPruneDisabledLeavesStorageUntouched(t *testing.T) {
	mem := storage.NewMemory()
	asset := seedAged(t, mem, 400*24*time.Hour)
	pruner := newTestPruner(t, mem, 0)

	deleted, err := pruner.Prune(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	remaining, err := mem.ListSamples(context.Background(), asset.ID, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	negative := -5
	deleted, err = pruner.Prune(context.Background(), &negative)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
