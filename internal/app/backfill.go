package app

import (
	"context"
	"errors"

	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/service"
)

// BackfillOptions configure a historical backfill run.
type BackfillOptions struct {
	Symbol string
	Window string
}

// Backfill fetches real historical prices for one asset and appends them to
// the ledger. Overlap with existing samples is absorbed.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if opts.Symbol == "" {
		return errors.New("a symbol is required")
	}

	lookback, err := service.ParseWindow(opts.Window)
	if err != nil {
		return err
	}

	svc, closeDeps, err := a.newService(ctx, (*metrics.Metrics)(nil))
	if err != nil {
		return err
	}
	defer closeDeps()

	inserted, err := svc.BackfillHistory(ctx, opts.Symbol, lookback)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("symbol", opts.Symbol).Int("inserted", inserted).Msg("backfill finished")
	return nil
}
