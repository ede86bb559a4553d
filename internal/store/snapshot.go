package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"stockpipe/internal/domain"
)

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// AnalyticsRecord is the Parquet schema for analytics snapshot rows. Nullable
// view columns map to optional parquet columns.
type AnalyticsRecord struct {
	Date            string   `parquet:"date"`
	Ticker          string   `parquet:"ticker"`
	Price           float64  `parquet:"price"`
	Volume          int64    `parquet:"volume"`
	CompanyName     *string  `parquet:"company_name,optional"`
	Sector          *string  `parquet:"sector,optional"`
	DailyReturnPct  *float64 `parquet:"daily_return_pct,optional"`
	SMA50           float64  `parquet:"sma_50"`
	SMA200          float64  `parquet:"sma_200"`
	High52Week      float64  `parquet:"high_52week"`
	TrendSignal     string   `parquet:"trend_signal"`
	PctFrom52wkHigh *float64 `parquet:"pct_from_52wk_high,optional"`
}

// WriteSnapshot dumps analytics rows to a Parquet file at path, creating
// parent directories as needed. The snapshot is a derived artifact for
// downstream columnar consumers; the view itself stays the source of truth.
func WriteSnapshot(path string, rows []domain.AnalyticsRow) error {
	records := make([]AnalyticsRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, AnalyticsRecord{
			Date:            r.Date.Format(domain.DateLayout),
			Ticker:          r.Ticker,
			Price:           r.Price,
			Volume:          r.Volume,
			CompanyName:     nullString(r.CompanyName),
			Sector:          nullString(r.Sector),
			DailyReturnPct:  nullFloat(r.DailyReturnPct),
			SMA50:           r.SMA50,
			SMA200:          r.SMA200,
			High52Week:      r.High52Week,
			TrendSignal:     string(r.TrendSignal),
			PctFrom52wkHigh: nullFloat(r.PctFrom52wkHigh),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a previously written snapshot file.
func ReadSnapshot(path string) ([]AnalyticsRecord, error) {
	return parquet.ReadFile[AnalyticsRecord](path)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
