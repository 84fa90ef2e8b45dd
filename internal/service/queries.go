package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

// ErrAssetNotFound is reported at the externally-facing query boundary when
// a symbol has never been registered. Worker tasks treat the same condition
// as an empty result instead.
var ErrAssetNotFound = errors.New("asset not found")

// ErrInvalidSymbol marks a symbol that fails basic shape validation.
var ErrInvalidSymbol = errors.New("invalid asset symbol")

// Summary aggregates an asset's samples over a window. The aggregate fields
// are nil when Count is zero.
type Summary struct {
	Count int
	First *decimal.Decimal
	Last  *decimal.Decimal
	Min   *decimal.Decimal
	Max   *decimal.Decimal
	Avg   *decimal.Decimal
}

// ListRecentSamples returns symbol's samples ordered by ts ascending,
// optionally restricted to ts >= since.
func (s *Service) ListRecentSamples(ctx context.Context, symbol string, since *time.Time) ([]storage.Sample, error) {
	asset, err := s.lookupAsset(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.samples.ListSamples(ctx, asset.ID, since)
}

// LatestPrice returns the newest observed price for symbol, served from the
// cache when possible and the ledger otherwise.
func (s *Service) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	if price, ts, ok, err := s.latest.Get(ctx, sym); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("latest price cache read failed")
	} else if ok {
		return price, ts, nil
	}

	asset, err := s.lookupAsset(ctx, sym)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}
	samples, err := s.samples.ListSamples(ctx, asset.ID, nil)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}
	if len(samples) == 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: no samples for %s", ErrAssetNotFound, sym)
	}
	last := samples[len(samples)-1]
	return last.Price, last.TS, nil
}

// Summarize computes {count, first, last, min, max, avg} over symbol's
// samples with ts >= since.
func (s *Service) Summarize(ctx context.Context, symbol string, since time.Time) (Summary, error) {
	asset, err := s.lookupAsset(ctx, symbol)
	if err != nil {
		return Summary{}, err
	}

	samples, err := s.samples.ListSamples(ctx, asset.ID, &since)
	if err != nil {
		return Summary{}, err
	}
	if len(samples) == 0 {
		return Summary{}, nil
	}

	first := samples[0].Price
	last := samples[len(samples)-1].Price
	min := samples[0].Price
	max := samples[0].Price
	sum := decimal.Zero
	for _, sample := range samples {
		if sample.Price.LessThan(min) {
			min = sample.Price
		}
		if sample.Price.GreaterThan(max) {
			max = sample.Price
		}
		sum = sum.Add(sample.Price)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(samples))))

	return Summary{
		Count: len(samples),
		First: &first,
		Last:  &last,
		Min:   &min,
		Max:   &max,
		Avg:   &avg,
	}, nil
}

// ListRecentAlerts returns symbol's alert events, most recent first.
func (s *Service) ListRecentAlerts(ctx context.Context, symbol string, limit int) ([]storage.AlertEvent, error) {
	asset, err := s.lookupAsset(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.alerts.ListRecentAlerts(ctx, asset.ID, limit)
}

// CreateAsset registers a symbol explicitly; a duplicate symbol surfaces
// storage.ErrAssetExists for the HTTP layer to map to a conflict.
func (s *Service) CreateAsset(ctx context.Context, symbol string, name *string) (storage.Asset, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if len(sym) < 2 || len(sym) > 20 {
		return storage.Asset{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s.assets.CreateAsset(ctx, sym, name)
}

// ListAssets returns all registered assets ordered by symbol.
func (s *Service) ListAssets(ctx context.Context) ([]storage.Asset, error) {
	return s.assets.ListAssets(ctx)
}

func (s *Service) lookupAsset(ctx context.Context, symbol string) (*storage.Asset, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	asset, err := s.assets.GetAsset(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("look up asset %s: %w", sym, err)
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, sym)
	}
	return asset, nil
}
