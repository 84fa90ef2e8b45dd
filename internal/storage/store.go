package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/adambarczewski00/telemetry-board/internal/config"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrAssetExists indicates a symbol collision on explicit asset creation.
	ErrAssetExists = errors.New("storage: asset already exists")
)

// AssetStore defines asset registration and lookup operations.
type AssetStore interface {
	// UpsertAsset returns the asset for symbol, creating a minimal record
	// when absent. Safe to call concurrently.
	UpsertAsset(ctx context.Context, symbol string) (Asset, error)
	// GetAsset returns nil without error when the symbol is unknown.
	GetAsset(ctx context.Context, symbol string) (*Asset, error)
	// CreateAsset inserts a new asset and fails with ErrAssetExists on a
	// symbol collision.
	CreateAsset(ctx context.Context, symbol string, name *string) (Asset, error)
	ListAssets(ctx context.Context) ([]Asset, error)
}

// SampleStore defines operations on the append-only price ledger.
type SampleStore interface {
	// InsertSample reports false (and no error) when the (asset, ts) pair
	// already exists; duplicate writes are benign no-ops.
	InsertSample(ctx context.Context, assetID int64, ts time.Time, price decimal.Decimal) (bool, error)
	// ListSamples returns samples ordered by ts ascending, optionally
	// restricted to ts >= since.
	ListSamples(ctx context.Context, assetID int64, since *time.Time) ([]Sample, error)
	// EarliestSampleTS returns nil when the asset has no samples.
	EarliestSampleTS(ctx context.Context, assetID int64) (*time.Time, error)
	// DeleteSamplesBefore removes samples with ts strictly before cutoff
	// across all assets and returns the number of rows removed.
	DeleteSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertEventStore defines alert event persistence.
type AlertEventStore interface {
	InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error)
	// ListRecentAlerts returns events ordered most recent first.
	ListRecentAlerts(ctx context.Context, assetID int64, limit int) ([]AlertEvent, error)
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}
