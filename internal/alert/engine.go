// Package alert evaluates sliding windows of stored samples and emits
// threshold-crossing events.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/adambarczewski00/telemetry-board/internal/alerting"
	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

// Defaults hold the global window/threshold applied when neither the call
// nor the asset carries an override.
type Defaults struct {
	WindowMinutes int
	ThresholdPct  float64
}

// Engine computes alerts for one asset at a time.
type Engine struct {
	assets   storage.AssetStore
	samples  storage.SampleStore
	alerts   storage.AlertEventStore
	notifier alerting.Notifier
	defaults Defaults
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	now func() time.Time
}

// NewEngine constructs an alert engine. Notifier and metrics may be nil.
func NewEngine(assets storage.AssetStore, samples storage.SampleStore, alerts storage.AlertEventStore, notifier alerting.Notifier, defaults Defaults, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	return &Engine{
		assets:   assets,
		samples:  samples,
		alerts:   alerts,
		notifier: notifier,
		defaults: defaults,
		metrics:  m,
		logger:   logger.With().Str("component", "alert_engine").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Compute evaluates the trailing window for symbol and emits at most one
// alert event. The returned count is the number of events created.
//
// The comparison uses only the first and last sample inside the window, not
// the extremum-to-extremum swing; an intra-window spike that reverts before
// the latest sample does not trigger.
func (e *Engine) Compute(ctx context.Context, symbol string, windowMinutes *int, thresholdPct *float64) (int, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	started := e.now()
	defer func() {
		e.metrics.ObserveAlertCompute(sym, e.now().Sub(started))
	}()

	asset, err := e.assets.GetAsset(ctx, sym)
	if err != nil {
		return 0, fmt.Errorf("look up asset: %w", err)
	}
	if asset == nil {
		// Unknown symbols are a no-op, matching the asset-not-found
		// tolerance used across the worker tasks.
		return 0, nil
	}

	window := ResolveInt(windowMinutes, asset.AlertWindowMinutes, e.defaults.WindowMinutes)
	threshold := ResolveFloat(thresholdPct, asset.AlertThresholdPct, e.defaults.ThresholdPct)

	now := e.now()
	since := now.Add(-time.Duration(window) * time.Minute)
	samples, err := e.samples.ListSamples(ctx, asset.ID, &since)
	if err != nil {
		return 0, fmt.Errorf("list samples: %w", err)
	}
	if len(samples) < 2 {
		return 0, nil
	}

	baseline := samples[0].Price
	current := samples[len(samples)-1].Price
	if baseline.IsZero() {
		return 0, nil
	}

	changePct := current.Sub(baseline).Div(baseline).Mul(decimal.NewFromInt(100))
	thresholdDec := decimal.NewFromFloat(threshold)
	if changePct.Abs().LessThan(thresholdDec) {
		return 0, nil
	}

	event := storage.AlertEvent{
		AssetID:       asset.ID,
		TriggeredAt:   now,
		WindowMinutes: window,
		ChangePct:     changePct,
	}
	if _, err := e.alerts.InsertAlertEvent(ctx, event); err != nil {
		return 0, fmt.Errorf("insert alert event: %w", err)
	}

	e.metrics.AlertEmitted(sym)
	e.logger.Info().Str("symbol", sym).
		Int("window_minutes", window).
		Str("change_pct", changePct.StringFixed(2)).
		Msg("alert emitted")

	if e.notifier != nil {
		note := alerting.Notification{
			Symbol:        sym,
			TriggeredAt:   now,
			WindowMinutes: window,
			ChangePct:     changePct,
			ThresholdPct:  thresholdDec,
		}
		if err := e.notifier.Notify(ctx, note); err != nil {
			// Delivery is best-effort; the event record is the source
			// of truth.
			e.logger.Error().Err(err).Str("symbol", sym).Msg("failed to dispatch alert notification")
		}
	}

	return 1, nil
}
