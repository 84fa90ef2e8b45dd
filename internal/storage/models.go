package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a tracked symbol with optional per-asset alert overrides.
type Asset struct {
	ID                 int64
	Symbol             string
	Name               *string
	AlertWindowMinutes *int
	AlertThresholdPct  *float64
	CreatedAt          time.Time
}

// Sample is one immutable (asset, timestamp, price) observation.
type Sample struct {
	AssetID int64
	TS      time.Time
	Price   decimal.Decimal
}

// AlertEvent records a threshold-crossing detected over a trailing window.
type AlertEvent struct {
	ID            int64
	AssetID       int64
	TriggeredAt   time.Time
	WindowMinutes int
	ChangePct     decimal.Decimal
}
