// Package pipeline sequences one full ETL pass: schema setup, metadata
// seeding, per-ticker fetch and normalize, batch upsert, and the analytics
// view rebuild.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"stockpipe/internal/domain"
	"stockpipe/internal/normalize"
	"stockpipe/internal/store"
)

// ErrNoTickers is returned when the metadata table is empty after seeding;
// a run without a universe is a hard precondition failure, not a no-op.
var ErrNoTickers = errors.New("pipeline: no tickers to process")

// Fetcher retrieves the raw series for one ticker. A (nil, nil) result means
// the ticker yielded no data and is skipped.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) ([]domain.SeriesPoint, error)
}

// Options configures a pipeline run.
type Options struct {
	// Seed is the candidate metadata inserted (if absent) at the start of
	// every run.
	Seed []domain.TickerMetadata

	// DownloadSleep is the fixed delay enforced between tickers regardless
	// of fetch outcome. Deliberate backpressure against the provider's rate
	// limiter; the sequential loop is the throttling design, not an
	// oversight.
	DownloadSleep time.Duration

	// SnapshotDir, when non-empty, receives a Parquet dump of the analytics
	// view after each rebuild, named by run date.
	SnapshotDir string
}

// Pipeline runs the ETL pass. It holds no state across runs; every run is a
// stateless pass over durable storage.
type Pipeline struct {
	store   store.Store
	fetcher Fetcher
	opts    Options
	log     *slog.Logger
}

// New creates a Pipeline over the given store and fetcher.
func New(s store.Store, f Fetcher, opts Options) *Pipeline {
	return &Pipeline{
		store:   s,
		fetcher: f,
		opts:    opts,
		log:     slog.Default().With("component", "pipeline"),
	}
}

// Run executes one full pass. Per-ticker fetch failures are logged and
// skipped; failures in schema setup, the batch commit, or the view rebuild
// abort the run, since downstream data would otherwise be inconsistent.
func (p *Pipeline) Run(ctx context.Context) error {
	runStart := time.Now()

	if err := p.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema setup: %w", err)
	}

	inserted, err := p.store.SeedTickers(ctx, p.opts.Seed)
	if err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}
	p.log.Info("metadata seeded", "candidates", len(p.opts.Seed), "inserted", inserted)

	tickers, err := p.store.ListTickers(ctx)
	if err != nil {
		return fmt.Errorf("listing tickers: %w", err)
	}
	if len(tickers) == 0 {
		return ErrNoTickers
	}
	p.log.Info("starting extraction", "tickers", len(tickers))

	var (
		batch   []domain.PriceObservation
		skipped int
	)
	for i, ticker := range tickers {
		points, err := p.fetcher.Fetch(ctx, ticker)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", ticker, err)
		}

		if len(points) == 0 {
			skipped++
			p.log.Warn("no data for ticker, skipping", "ticker", ticker)
		} else {
			rows := normalize.Series(points, ticker)
			batch = append(batch, rows...)
			p.log.Info("ticker processed",
				"ticker", ticker,
				"raw", len(points),
				"rows", len(rows),
			)
		}

		// Fixed inter-request delay regardless of outcome, skipped after
		// the final ticker.
		if i < len(tickers)-1 && p.opts.DownloadSleep > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.opts.DownloadSleep):
			}
		}
	}

	if len(batch) == 0 {
		p.log.Warn("no data fetched for any ticker")
	}

	applied, err := p.store.UpsertPrices(ctx, batch)
	if err != nil {
		return fmt.Errorf("loading prices: %w", err)
	}
	p.log.Info("prices loaded", "rows", len(batch), "applied", applied, "skipped_tickers", skipped)

	// The view is a pure function of current store state; rebuild even when
	// this run contributed nothing.
	if err := p.store.RebuildAnalyticsView(ctx); err != nil {
		return fmt.Errorf("rebuilding analytics view: %w", err)
	}
	p.log.Info("analytics view rebuilt")

	if p.opts.SnapshotDir != "" {
		if err := p.writeSnapshot(ctx); err != nil {
			// Snapshot is a derived artifact; the store is already
			// consistent, so the run still succeeds.
			p.log.Error("snapshot export failed", "err", err)
		}
	}

	p.log.Info("run complete", "elapsed", time.Since(runStart).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) writeSnapshot(ctx context.Context) error {
	rows, err := p.store.QueryAnalytics(ctx, "")
	if err != nil {
		return fmt.Errorf("querying analytics: %w", err)
	}

	name := domain.Day(time.Now()).Format(domain.DateLayout) + ".parquet"
	path := filepath.Join(p.opts.SnapshotDir, name)
	if err := store.WriteSnapshot(path, rows); err != nil {
		return err
	}
	p.log.Info("analytics snapshot written", "path", path, "rows", len(rows))
	return nil
}
