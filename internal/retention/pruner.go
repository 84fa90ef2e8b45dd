// Package retention deletes samples older than the configured horizon.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

// Pruner sweeps the price ledger across all assets.
type Pruner struct {
	samples     storage.SampleStore
	defaultDays int
	logger      zerolog.Logger

	now func() time.Time
}

// NewPruner constructs a Pruner with the configured default horizon.
func NewPruner(samples storage.SampleStore, defaultDays int, logger zerolog.Logger) *Pruner {
	return &Pruner{
		samples:     samples,
		defaultDays: defaultDays,
		logger:      logger.With().Str("component", "retention").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Prune deletes samples older than the retention horizon and returns the
// number of rows removed. A horizon <= 0 disables pruning for this
// invocation and returns 0 without touching storage.
func (p *Pruner) Prune(ctx context.Context, overrideDays *int) (int64, error) {
	days := p.defaultDays
	if overrideDays != nil {
		days = *overrideDays
	}
	if days <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := p.samples.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete samples before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		p.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned old samples")
	}
	return deleted, nil
}
