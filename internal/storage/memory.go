package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-process implementation of the store interfaces. It backs
// tests and DSN-less demo runs; the uniqueness guarantees match the SQL
// constraints.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	assets  map[string]*Asset
	samples map[int64]map[int64]Sample // asset id -> unix nano -> sample
	alerts  []AlertEvent
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		assets:  make(map[string]*Asset),
		samples: make(map[int64]map[int64]Sample),
	}
}

func (m *Memory) nextIdentity() int64 {
	m.nextID++
	return m.nextID
}

// UpsertAsset returns the asset for symbol, creating it when absent.
func (m *Memory) UpsertAsset(ctx context.Context, symbol string) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.assets[symbol]; ok {
		return *existing, nil
	}
	asset := &Asset{
		ID:        m.nextIdentity(),
		Symbol:    symbol,
		CreatedAt: time.Now().UTC(),
	}
	m.assets[symbol] = asset
	return *asset, nil
}

// GetAsset looks up an asset by symbol; nil result means not found.
func (m *Memory) GetAsset(ctx context.Context, symbol string) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[symbol]
	if !ok {
		return nil, nil
	}
	copied := *asset
	return &copied, nil
}

// CreateAsset inserts a new asset or fails with ErrAssetExists.
func (m *Memory) CreateAsset(ctx context.Context, symbol string, name *string) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[symbol]; ok {
		return Asset{}, ErrAssetExists
	}
	asset := &Asset{
		ID:        m.nextIdentity(),
		Symbol:    symbol,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.assets[symbol] = asset
	return *asset, nil
}

// ListAssets returns all assets ordered by symbol.
func (m *Memory) ListAssets(ctx context.Context) ([]Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assets := make([]Asset, 0, len(m.assets))
	for _, asset := range m.assets {
		assets = append(assets, *asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets, nil
}

// SetAlertOverrides stores per-asset alert overrides. Test helper; the SQL
// schema exposes the same columns through migrations.
func (m *Memory) SetAlertOverrides(symbol string, windowMinutes *int, thresholdPct *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if asset, ok := m.assets[symbol]; ok {
		asset.AlertWindowMinutes = windowMinutes
		asset.AlertThresholdPct = thresholdPct
	}
}

// InsertSample appends one observation; duplicate (asset, ts) reports false.
func (m *Memory) InsertSample(ctx context.Context, assetID int64, ts time.Time, price decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTS, ok := m.samples[assetID]
	if !ok {
		byTS = make(map[int64]Sample)
		m.samples[assetID] = byTS
	}

	key := ts.UTC().UnixNano()
	if _, exists := byTS[key]; exists {
		return false, nil
	}
	byTS[key] = Sample{AssetID: assetID, TS: ts.UTC(), Price: price}
	return true, nil
}

// ListSamples returns an asset's samples ordered by ts ascending.
func (m *Memory) ListSamples(ctx context.Context, assetID int64, since *time.Time) ([]Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := make([]Sample, 0)
	for _, sample := range m.samples[assetID] {
		if since != nil && sample.TS.Before(since.UTC()) {
			continue
		}
		samples = append(samples, sample)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].TS.Before(samples[j].TS) })
	return samples, nil
}

// EarliestSampleTS returns the oldest sample timestamp for the asset, if any.
func (m *Memory) EarliestSampleTS(ctx context.Context, assetID int64) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var earliest *time.Time
	for _, sample := range m.samples[assetID] {
		ts := sample.TS
		if earliest == nil || ts.Before(*earliest) {
			earliest = &ts
		}
	}
	return earliest, nil
}

// DeleteSamplesBefore removes samples older than cutoff across all assets.
func (m *Memory) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := cutoff.UTC()
	var deleted int64
	for _, byTS := range m.samples {
		for key, sample := range byTS {
			if sample.TS.Before(limit) {
				delete(byTS, key)
				deleted++
			}
		}
	}
	return deleted, nil
}

// InsertAlertEvent persists one threshold-crossing event.
func (m *Memory) InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = m.nextIdentity()
	event.TriggeredAt = event.TriggeredAt.UTC()
	m.alerts = append(m.alerts, event)
	return event, nil
}

// ListRecentAlerts returns an asset's alert events, most recent first.
func (m *Memory) ListRecentAlerts(ctx context.Context, assetID int64, limit int) ([]AlertEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]AlertEvent, 0)
	for _, event := range m.alerts {
		if event.AssetID == assetID {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].TriggeredAt.After(events[j].TriggeredAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

var (
	_ AssetStore      = (*Memory)(nil)
	_ SampleStore     = (*Memory)(nil)
	_ AlertEventStore = (*Memory)(nil)
)
