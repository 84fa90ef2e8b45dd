package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	uniqueViolationCode = "23505"

	upsertAssetSQL = `INSERT INTO assets (symbol)
    VALUES ($1)
    ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
    RETURNING id, symbol, name, alert_window_minutes, alert_threshold_pct, created_at;`

	getAssetSQL = `SELECT id, symbol, name, alert_window_minutes, alert_threshold_pct, created_at
    FROM assets
    WHERE symbol = $1;`

	createAssetSQL = `INSERT INTO assets (symbol, name)
    VALUES ($1, $2)
    RETURNING id, symbol, name, alert_window_minutes, alert_threshold_pct, created_at;`

	listAssetsSQL = `SELECT id, symbol, name, alert_window_minutes, alert_threshold_pct, created_at
    FROM assets
    ORDER BY symbol;`

	insertSampleSQL = `INSERT INTO price_history (asset_id, ts, price)
    VALUES ($1, $2, $3)
    ON CONFLICT (asset_id, ts) DO NOTHING;`

	listSamplesSQL = `SELECT asset_id, ts, price
    FROM price_history
    WHERE asset_id = $1
    ORDER BY ts;`

	listSamplesSinceSQL = `SELECT asset_id, ts, price
    FROM price_history
    WHERE asset_id = $1
      AND ts >= $2
    ORDER BY ts;`

	earliestSampleSQL = `SELECT MIN(ts) FROM price_history WHERE asset_id = $1;`

	deleteSamplesBeforeSQL = `DELETE FROM price_history WHERE ts < $1;`

	insertAlertEventSQL = `INSERT INTO alerts (asset_id, triggered_at, window_minutes, change_pct)
    VALUES ($1, $2, $3, $4)
    RETURNING id, asset_id, triggered_at, window_minutes, change_pct;`

	listRecentAlertsSQL = `SELECT id, asset_id, triggered_at, window_minutes, change_pct
    FROM alerts
    WHERE asset_id = $1
    ORDER BY triggered_at DESC
    LIMIT $2;`
)

// Store aggregates Postgres access to assets, samples, and alert events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertAsset returns the asset row for symbol, creating it when absent.
func (s *Store) UpsertAsset(ctx context.Context, symbol string) (Asset, error) {
	pool, err := s.getPool()
	if err != nil {
		return Asset{}, err
	}

	asset, scanErr := scanAsset(pool.QueryRow(ctx, upsertAssetSQL, symbol))
	if scanErr != nil {
		return Asset{}, fmt.Errorf("upsert asset: %w", scanErr)
	}
	return asset, nil
}

// GetAsset looks up an asset by symbol; nil result means not found.
func (s *Store) GetAsset(ctx context.Context, symbol string) (*Asset, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	asset, scanErr := scanAsset(pool.QueryRow(ctx, getAssetSQL, symbol))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", scanErr)
	}
	return &asset, nil
}

// CreateAsset inserts a new asset, mapping symbol collisions to ErrAssetExists.
func (s *Store) CreateAsset(ctx context.Context, symbol string, name *string) (Asset, error) {
	pool, err := s.getPool()
	if err != nil {
		return Asset{}, err
	}

	asset, scanErr := scanAsset(pool.QueryRow(ctx, createAssetSQL, symbol, name))
	if scanErr != nil {
		if isUniqueViolation(scanErr) {
			return Asset{}, ErrAssetExists
		}
		return Asset{}, fmt.Errorf("create asset: %w", scanErr)
	}
	return asset, nil
}

// ListAssets returns all assets ordered by symbol.
func (s *Store) ListAssets(ctx context.Context) ([]Asset, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAssetsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list assets: %w", queryErr)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		asset, scanErr := scanAsset(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		assets = append(assets, asset)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return assets, nil
}

// InsertSample appends one observation; a (asset, ts) collision reports false.
func (s *Store) InsertSample(ctx context.Context, assetID int64, ts time.Time, price decimal.Decimal) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	tag, execErr := pool.Exec(ctx, insertSampleSQL, assetID, ts.UTC(), price.String())
	if execErr != nil {
		return false, fmt.Errorf("insert sample: %w", execErr)
	}
	return tag.RowsAffected() == 1, nil
}

// ListSamples returns an asset's samples ordered by ts ascending.
func (s *Store) ListSamples(ctx context.Context, assetID int64, since *time.Time) ([]Sample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	var queryErr error
	if since != nil {
		rows, queryErr = pool.Query(ctx, listSamplesSinceSQL, assetID, since.UTC())
	} else {
		rows, queryErr = pool.Query(ctx, listSamplesSQL, assetID)
	}
	if queryErr != nil {
		return nil, fmt.Errorf("list samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		sample, scanErr := scanSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// EarliestSampleTS returns the oldest sample timestamp for the asset, if any.
func (s *Store) EarliestSampleTS(ctx context.Context, assetID int64) (*time.Time, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var earliest *time.Time
	if scanErr := pool.QueryRow(ctx, earliestSampleSQL, assetID).Scan(&earliest); scanErr != nil {
		return nil, fmt.Errorf("earliest sample: %w", scanErr)
	}
	if earliest == nil {
		return nil, nil
	}
	utc := earliest.UTC()
	return &utc, nil
}

// DeleteSamplesBefore bulk-deletes samples older than cutoff across all assets.
func (s *Store) DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	tag, execErr := pool.Exec(ctx, deleteSamplesBeforeSQL, cutoff.UTC())
	if execErr != nil {
		return 0, fmt.Errorf("delete samples before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// InsertAlertEvent persists one threshold-crossing event.
func (s *Store) InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEvent{}, err
	}

	row := pool.QueryRow(ctx, insertAlertEventSQL,
		event.AssetID,
		event.TriggeredAt.UTC(),
		event.WindowMinutes,
		event.ChangePct.String(),
	)

	rec, scanErr := scanAlertEvent(row)
	if scanErr != nil {
		return AlertEvent{}, fmt.Errorf("insert alert event: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts returns an asset's alert events, most recent first.
func (s *Store) ListRecentAlerts(ctx context.Context, assetID int64, limit int) ([]AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, assetID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	events := make([]AlertEvent, 0, limit)
	for rows.Next() {
		event, scanErr := scanAlertEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func scanAsset(row pgx.Row) (Asset, error) {
	var asset Asset
	if err := row.Scan(
		&asset.ID,
		&asset.Symbol,
		&asset.Name,
		&asset.AlertWindowMinutes,
		&asset.AlertThresholdPct,
		&asset.CreatedAt,
	); err != nil {
		return Asset{}, err
	}
	return asset, nil
}

func scanSample(row pgx.Row) (Sample, error) {
	var (
		sample   Sample
		priceStr string
	)
	if err := row.Scan(&sample.AssetID, &sample.TS, &priceStr); err != nil {
		return Sample{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Sample{}, fmt.Errorf("parse price: %w", err)
	}
	sample.Price = price
	sample.TS = sample.TS.UTC()
	return sample, nil
}

func scanAlertEvent(row pgx.Row) (AlertEvent, error) {
	var (
		event     AlertEvent
		changeStr string
	)
	if err := row.Scan(
		&event.ID,
		&event.AssetID,
		&event.TriggeredAt,
		&event.WindowMinutes,
		&changeStr,
	); err != nil {
		return AlertEvent{}, err
	}

	change, err := decimal.NewFromString(changeStr)
	if err != nil {
		return AlertEvent{}, fmt.Errorf("parse change pct: %w", err)
	}
	event.ChangePct = change
	event.TriggeredAt = event.TriggeredAt.UTC()
	return event, nil
}

var (
	_ AssetStore      = (*Store)(nil)
	_ SampleStore     = (*Store)(nil)
	_ AlertEventStore = (*Store)(nil)
)
