// Package domain defines the core value types shared across the pipeline:
// ticker metadata, raw series points, canonical price observations, and the
// derived analytics rows.
package domain

import (
	"database/sql"
	"time"
)

// DateLayout is the canonical calendar-date format used for storage keys.
const DateLayout = "2006-01-02"

// TickerMetadata describes one symbol in the tracked universe. Rows are
// seeded from configuration and never overwritten once present.
type TickerMetadata struct {
	Ticker      string
	CompanyName string
	Sector      string
}

// SeriesPoint is a single raw observation as returned by a market-data
// provider, before normalization.
type SeriesPoint struct {
	Date   time.Time
	Close  float64
	Volume int64
}

// PriceObservation is the canonical stored row. Identity is (Date, Ticker);
// Date carries no time-of-day or timezone component.
type PriceObservation struct {
	Date   time.Time
	Ticker string
	Price  float64
	Volume int64
}

// Trend is the categorical signal derived from the SMA crossover.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// AnalyticsRow is one row of the derived analytics view. It is never stored;
// it is recomputed from the price and metadata tables on every rebuild.
// Nullable columns use database/sql wrappers: DailyReturnPct is null on a
// ticker's first row, PctFrom52wkHigh is null when the 52-week high is zero,
// and CompanyName/Sector are null when no metadata matches the ticker.
type AnalyticsRow struct {
	Date            time.Time
	Ticker          string
	Price           float64
	Volume          int64
	CompanyName     sql.NullString
	Sector          sql.NullString
	DailyReturnPct  sql.NullFloat64
	SMA50           float64
	SMA200          float64
	High52Week      float64
	TrendSignal     Trend
	PctFrom52wkHigh sql.NullFloat64
}

// Day truncates t to a pure UTC calendar date.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
