package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedSymbol marks a symbol with no upstream mapping. Non-retriable.
var ErrUnsupportedSymbol = errors.New("unsupported asset symbol")

// PricePoint is one upstream (timestamp, price) observation.
type PricePoint struct {
	TS    time.Time
	Price decimal.Decimal
}

// PriceFetcher retrieves the current USD price for a symbol.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RangeFetcher retrieves historical prices covering the trailing lookback.
type RangeFetcher interface {
	FetchRange(ctx context.Context, symbol string, lookback time.Duration) ([]PricePoint, error)
}
