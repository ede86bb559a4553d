// Package store persists ticker metadata and price observations and derives
// the analytics view over them.
package store

import (
	"context"

	"stockpipe/internal/domain"
)

// MetadataStore seeds and lists the tracked ticker universe.
type MetadataStore interface {
	// SeedTickers inserts candidates whose ticker is not already present
	// and returns the count of newly inserted rows. Existing rows are never
	// modified; an empty candidate list is a no-op.
	SeedTickers(ctx context.Context, candidates []domain.TickerMetadata) (int, error)

	// ListTickers returns all known tickers ordered by symbol.
	ListTickers(ctx context.Context) ([]string, error)
}

// PriceStore persists canonical price observations.
type PriceStore interface {
	// UpsertPrices applies a batch keyed by (date, ticker): insert if
	// absent, else overwrite price and volume. The whole batch is applied
	// in one transaction; a mid-batch failure leaves prior state intact.
	UpsertPrices(ctx context.Context, rows []domain.PriceObservation) (int64, error)

	// CountPrices returns the number of stored rows for ticker
	// ("" = all tickers).
	CountPrices(ctx context.Context, ticker string) (int, error)
}

// AnalyticsStore owns the derived analytics view.
type AnalyticsStore interface {
	// RebuildAnalyticsView drops and recreates the view. Idempotent; the
	// view is a pure function of the current price and metadata tables.
	RebuildAnalyticsView(ctx context.Context) error

	// QueryAnalytics reads the view ordered by (ticker, date)
	// ("" = all tickers).
	QueryAnalytics(ctx context.Context, ticker string) ([]domain.AnalyticsRow, error)
}

// Store is the full storage surface the pipeline orchestrator needs.
type Store interface {
	// EnsureSchema creates the metadata and price tables if absent.
	EnsureSchema(ctx context.Context) error

	MetadataStore
	PriceStore
	AnalyticsStore
}
