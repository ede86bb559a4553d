// Package provider abstracts the external market-data source behind a small
// interface so the pipeline can be exercised against fakes in tests.
package provider

import (
	"context"
	"time"

	"stockpipe/internal/domain"
)

// MarketData retrieves a daily price series for one symbol. An unknown or
// delisted symbol yields an empty slice and a nil error; transport and API
// failures yield an error. Both are handled identically by the fetch retry
// loop.
type MarketData interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.SeriesPoint, error)
}
