package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmitsFetchAndComputePerAsset(t *testing.T) {
	entries := Build(Options{
		Assets:           []string{"BTC", "ETH"},
		FetchEvery:       5 * time.Minute,
		RetentionEvery:   24 * time.Hour,
		RetentionEnabled: true,
	})

	require.Len(t, entries, 5)

	fetch, ok := entries["fetch_BTC"]
	require.True(t, ok)
	assert.Equal(t, TaskFetchPrice, fetch.Task)
	assert.Equal(t, 5*time.Minute, fetch.Every)
	assert.Equal(t, []string{"BTC"}, fetch.Args)

	compute, ok := entries["compute_BTC"]
	require.True(t, ok)
	assert.Equal(t, TaskComputeAlerts, compute.Task)
	assert.Equal(t, 5*time.Minute, compute.Every)

	prune, ok := entries[TaskPruneOldPrices]
	require.True(t, ok)
	assert.Equal(t, TaskPruneOldPrices, prune.Task)
	assert.Equal(t, 24*time.Hour, prune.Every)
}

func TestBuildNormalisesSymbols(t *testing.T) {
	entries := Build(Options{
		Assets:     []string{" btc", "ETH ", "", "eth"},
		FetchEvery: time.Minute,
	})

	assert.Len(t, entries, 4)
	assert.Contains(t, entries, "fetch_BTC")
	assert.Contains(t, entries, "compute_BTC")
	assert.Contains(t, entries, "fetch_ETH")
	assert.Contains(t, entries, "compute_ETH")
}

func TestBuildSkipsRetentionWhenDisabled(t *testing.T) {
	entries := Build(Options{
		Assets:           []string{"BTC"},
		FetchEvery:       time.Minute,
		RetentionEvery:   24 * time.Hour,
		RetentionEnabled: false,
	})

	assert.NotContains(t, entries, TaskPruneOldPrices)
}

func TestBuildClampsSubSecondCadence(t *testing.T) {
	entries := Build(Options{
		Assets:     []string{"BTC"},
		FetchEvery: 100 * time.Millisecond,
	})

	assert.Equal(t, time.Second, entries["fetch_BTC"].Every)
}
