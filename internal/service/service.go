// Package service orchestrates the worker tasks (fetch, alert, prune, seed)
// and exposes the query surface consumed by the HTTP layer.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/adambarczewski00/telemetry-board/internal/alert"
	"github.com/adambarczewski00/telemetry-board/internal/cache"
	"github.com/adambarczewski00/telemetry-board/internal/fetcher"
	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/retention"
	"github.com/adambarczewski00/telemetry-board/internal/runner"
	"github.com/adambarczewski00/telemetry-board/internal/schedule"
	"github.com/adambarczewski00/telemetry-board/internal/seed"
	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

// Service wires the stores, fetcher, and task implementations together.
type Service struct {
	assets  storage.AssetStore
	samples storage.SampleStore
	alerts  storage.AlertEventStore
	prices  fetcher.PriceFetcher
	ranges  fetcher.RangeFetcher
	engine  *alert.Engine
	pruner  *retention.Pruner
	seeder  *seed.Seeder
	latest  *cache.LatestPrices
	metrics *metrics.Metrics
	logger  zerolog.Logger

	now func() time.Time
}

// New constructs the service. Ranges, cache, and metrics may be nil.
func New(assets storage.AssetStore, samples storage.SampleStore, alerts storage.AlertEventStore, prices fetcher.PriceFetcher, ranges fetcher.RangeFetcher, engine *alert.Engine, pruner *retention.Pruner, seeder *seed.Seeder, latest *cache.LatestPrices, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		assets:  assets,
		samples: samples,
		alerts:  alerts,
		prices:  prices,
		ranges:  ranges,
		engine:  engine,
		pruner:  pruner,
		seeder:  seeder,
		latest:  latest,
		metrics: m,
		logger:  logger.With().Str("component", "service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchPrice fetches the current price for symbol, auto-creates the asset if
// needed, and appends a sample. Duplicate (asset, ts) writes are absorbed.
func (s *Service) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	started := s.now()

	price, err := s.prices.FetchPrice(ctx, sym)
	s.metrics.ObserveFetch(sym, s.now().Sub(started))
	if err != nil {
		s.metrics.FetchFailed(sym)
		return decimal.Decimal{}, fmt.Errorf("fetch price for %s: %w", sym, err)
	}

	asset, err := s.assets.UpsertAsset(ctx, sym)
	if err != nil {
		s.metrics.FetchFailed(sym)
		return decimal.Decimal{}, fmt.Errorf("upsert asset %s: %w", sym, err)
	}

	ts := s.now()
	if _, err := s.samples.InsertSample(ctx, asset.ID, ts, price); err != nil {
		s.metrics.FetchFailed(sym)
		return decimal.Decimal{}, fmt.Errorf("insert sample for %s: %w", sym, err)
	}

	if err := s.latest.Set(ctx, sym, price, ts); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("failed to cache latest price")
	}

	s.metrics.FetchSucceeded(sym)
	s.logger.Info().Str("symbol", sym).Str("price", price.String()).Msg("sample recorded")
	return price, nil
}

// BackfillHistory fetches real historical prices covering the trailing
// lookback window and appends them to the ledger. Points colliding with
// existing samples are absorbed, so re-running over an overlapping window is
// safe. Returns the number of samples inserted.
func (s *Service) BackfillHistory(ctx context.Context, symbol string, lookback time.Duration) (int, error) {
	if s.ranges == nil {
		return 0, fmt.Errorf("no historical price source configured")
	}

	sym := strings.ToUpper(strings.TrimSpace(symbol))
	points, err := s.ranges.FetchRange(ctx, sym, lookback)
	if err != nil {
		return 0, fmt.Errorf("fetch range for %s: %w", sym, err)
	}

	asset, err := s.assets.UpsertAsset(ctx, sym)
	if err != nil {
		return 0, fmt.Errorf("upsert asset %s: %w", sym, err)
	}

	inserted := 0
	for _, point := range points {
		ok, err := s.samples.InsertSample(ctx, asset.ID, point.TS, point.Price)
		if err != nil {
			return inserted, fmt.Errorf("insert backfilled sample for %s: %w", sym, err)
		}
		if ok {
			inserted++
		}
	}

	s.logger.Info().Str("symbol", sym).Int("fetched", len(points)).Int("inserted", inserted).Msg("historical backfill complete")
	return inserted, nil
}

// ComputeAlerts evaluates the trailing window for symbol.
func (s *Service) ComputeAlerts(ctx context.Context, symbol string, windowMinutes *int, thresholdPct *float64) (int, error) {
	return s.engine.Compute(ctx, symbol, windowMinutes, thresholdPct)
}

// PruneOldPrices sweeps samples past the retention horizon.
func (s *Service) PruneOldPrices(ctx context.Context, retentionDays *int) (int64, error) {
	return s.pruner.Prune(ctx, retentionDays)
}

// SeedMockPrices backfills synthetic history for symbol.
func (s *Service) SeedMockPrices(ctx context.Context, symbol string, hours, intervalSeconds *int) (int, error) {
	return s.seeder.Seed(ctx, symbol, hours, intervalSeconds)
}

// RegisterHandlers binds the task identifiers used by the schedule builder
// to their implementations on the runner.
func (s *Service) RegisterHandlers(r *runner.Runner) {
	r.Register(schedule.TaskFetchPrice, func(ctx context.Context, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("fetch_price requires a symbol argument")
		}
		_, err := s.FetchPrice(ctx, args[0])
		return err
	})

	r.Register(schedule.TaskComputeAlerts, func(ctx context.Context, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("compute_alerts requires a symbol argument")
		}
		window, threshold, err := parseAlertArgs(args[1:])
		if err != nil {
			return err
		}
		_, err = s.ComputeAlerts(ctx, args[0], window, threshold)
		return err
	})

	r.Register(schedule.TaskPruneOldPrices, func(ctx context.Context, args []string) error {
		var days *int
		if len(args) >= 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("prune_old_prices: invalid retention days %q: %w", args[0], err)
			}
			days = &parsed
		}
		_, err := s.PruneOldPrices(ctx, days)
		return err
	})

	r.Register(schedule.TaskSeedMockPrices, func(ctx context.Context, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("seed_mock_prices requires a symbol argument")
		}
		var hours, interval *int
		if len(args) >= 2 {
			parsed, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("seed_mock_prices: invalid hours %q: %w", args[1], err)
			}
			hours = &parsed
		}
		if len(args) >= 3 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("seed_mock_prices: invalid interval %q: %w", args[2], err)
			}
			interval = &parsed
		}
		_, err := s.SeedMockPrices(ctx, args[0], hours, interval)
		return err
	})
}

func parseAlertArgs(args []string) (*int, *float64, error) {
	var window *int
	var threshold *float64
	if len(args) >= 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("compute_alerts: invalid window %q: %w", args[0], err)
		}
		window = &parsed
	}
	if len(args) >= 2 {
		parsed, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("compute_alerts: invalid threshold %q: %w", args[1], err)
		}
		threshold = &parsed
	}
	return window, threshold, nil
}
