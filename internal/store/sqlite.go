package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stockpipe/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ Store = (*SQLiteStore)(nil)

// upsertChunkSize bounds the number of rows per multi-value INSERT so the
// statement stays well under SQLite's bound-parameter limit.
const upsertChunkSize = 200

// SQLiteStore implements Store backed by a SQLite database. Dates are stored
// as TEXT in YYYY-MM-DD form so lexical ordering matches calendar ordering.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at dbPath and returns a
// ready-to-use SQLiteStore.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// EnsureSchema creates the metadata and price tables if they do not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticker_metadata (
			ticker       TEXT PRIMARY KEY,
			company_name TEXT,
			sector       TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS daily_prices (
			date   TEXT    NOT NULL,
			ticker TEXT    NOT NULL,
			price  REAL    NOT NULL,
			volume INTEGER NOT NULL,
			PRIMARY KEY (date, ticker)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// MetadataStore implementation
// ---------------------------------------------------------------------------

// SeedTickers inserts candidates not already present, in one transaction.
func (s *SQLiteStore) SeedTickers(ctx context.Context, candidates []domain.TickerMetadata) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ticker_metadata (ticker, company_name, sector)
		 VALUES (?, ?, ?)
		 ON CONFLICT(ticker) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range candidates {
		res, err := stmt.ExecContext(ctx, c.Ticker, c.CompanyName, c.Sector)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", c.Ticker, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("seed %s rows affected: %w", c.Ticker, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

// ListTickers returns all tickers in the metadata table ordered by symbol.
func (s *SQLiteStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM ticker_metadata ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// ---------------------------------------------------------------------------
// PriceStore implementation
// ---------------------------------------------------------------------------

// UpsertPrices applies the batch in a single transaction, chunked into
// multi-value INSERT statements. Re-fetched (date, ticker) rows overwrite
// price and volume; nothing is ever duplicated.
func (s *SQLiteStore) UpsertPrices(ctx context.Context, obs []domain.PriceObservation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	var applied int64
	for start := 0; start < len(obs); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(obs))
		chunk := obs[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO daily_prices (date, ticker, price, volume) VALUES `)
		args := make([]any, 0, len(chunk)*4)
		for i, o := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, o.Date.Format(domain.DateLayout), o.Ticker, o.Price, o.Volume)
		}
		sb.WriteString(` ON CONFLICT(date, ticker) DO UPDATE SET
			price = excluded.price,
			volume = excluded.volume`)

		res, err := tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return 0, fmt.Errorf("upsert chunk [%d:%d]: %w", start, end, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("upsert rows affected: %w", err)
		}
		applied += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return applied, nil
}

// CountPrices returns the stored row count for ticker ("" = all tickers).
func (s *SQLiteStore) CountPrices(ctx context.Context, ticker string) (int, error) {
	var (
		count int
		err   error
	)
	if ticker == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_prices WHERE ticker = ?`, ticker).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count prices: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// AnalyticsStore implementation
// ---------------------------------------------------------------------------

// Window widths are row counts, not calendar spans: 49/199 preceding rows for
// the 50/200-day SMAs and 251 preceding rows for the trailing trading year.
// A data outage therefore narrows the effective window rather than widening
// the date range.
const analyticsViewSQL = `
CREATE VIEW v_stock_analysis AS
WITH calculations AS (
	SELECT
		p.date,
		p.ticker,
		p.price,
		p.volume,
		m.company_name,
		m.sector,
		ROUND(
			(p.price - LAG(p.price) OVER (PARTITION BY p.ticker ORDER BY p.date))
			/ NULLIF(LAG(p.price) OVER (PARTITION BY p.ticker ORDER BY p.date), 0) * 100,
		4) AS daily_return_pct,
		AVG(p.price) OVER (
			PARTITION BY p.ticker ORDER BY p.date
			ROWS BETWEEN 49 PRECEDING AND CURRENT ROW
		) AS sma_50,
		AVG(p.price) OVER (
			PARTITION BY p.ticker ORDER BY p.date
			ROWS BETWEEN 199 PRECEDING AND CURRENT ROW
		) AS sma_200,
		MAX(p.price) OVER (
			PARTITION BY p.ticker ORDER BY p.date
			ROWS BETWEEN 251 PRECEDING AND CURRENT ROW
		) AS high_52week
	FROM daily_prices p
	LEFT JOIN ticker_metadata m ON p.ticker = m.ticker
)
SELECT
	date,
	ticker,
	price,
	volume,
	company_name,
	sector,
	daily_return_pct,
	sma_50,
	sma_200,
	high_52week,
	CASE
		WHEN sma_50 > sma_200 THEN 'Bullish'
		WHEN sma_50 < sma_200 THEN 'Bearish'
		ELSE 'Neutral'
	END AS trend_signal,
	ROUND((price - high_52week) / NULLIF(high_52week, 0) * 100, 2) AS pct_from_52wk_high
FROM calculations`

// RebuildAnalyticsView drops and recreates v_stock_analysis in one
// transaction. Always a full replace: the window functions must see the
// complete current price history, so there is no incremental path.
func (s *SQLiteStore) RebuildAnalyticsView(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP VIEW IF EXISTS v_stock_analysis`); err != nil {
		return fmt.Errorf("drop view: %w", err)
	}
	if _, err := tx.ExecContext(ctx, analyticsViewSQL); err != nil {
		return fmt.Errorf("create view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit view: %w", err)
	}
	return nil
}

// QueryAnalytics reads the analytics view ordered by (ticker, date).
func (s *SQLiteStore) QueryAnalytics(ctx context.Context, ticker string) ([]domain.AnalyticsRow, error) {
	query := `SELECT date, ticker, price, volume, company_name, sector,
		daily_return_pct, sma_50, sma_200, high_52week, trend_signal, pct_from_52wk_high
		FROM v_stock_analysis`
	var args []any
	if ticker != "" {
		query += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY ticker, date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalyticsRow
	for rows.Next() {
		var (
			r       domain.AnalyticsRow
			dateStr string
			trend   string
		)
		if err := rows.Scan(
			&dateStr, &r.Ticker, &r.Price, &r.Volume,
			&r.CompanyName, &r.Sector,
			&r.DailyReturnPct, &r.SMA50, &r.SMA200, &r.High52Week,
			&trend, &r.PctFrom52wkHigh,
		); err != nil {
			return nil, err
		}

		r.Date, err = parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		r.TrendSignal = domain.Trend(trend)
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseDate(s string) (t time.Time, err error) {
	t, err = time.Parse(domain.DateLayout, s)
	if err != nil {
		err = fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, err
}
