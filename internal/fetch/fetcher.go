// Package fetch wraps a market-data provider with bounded retry, exponential
// backoff, and empty-result detection.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stockpipe/internal/domain"
	"stockpipe/internal/provider"
	"stockpipe/internal/util"
)

// ErrEmptySeries marks a provider call that succeeded but returned no rows.
// Inside the retry loop it is treated like any transient failure.
var ErrEmptySeries = errors.New("fetch: provider returned empty series")

// Fetcher retrieves the daily series for one ticker with retry. After
// maxAttempts exhausted attempts it gives up with a nil slice and nil error:
// a persistent single-ticker failure is an outcome to skip, never a reason to
// abort the batch.
type Fetcher struct {
	provider    provider.MarketData
	start, end  time.Time
	maxAttempts int
	backoffBase time.Duration
	log         *slog.Logger
}

// New creates a Fetcher for the given date range and retry policy. A zero
// end means "the current day", resolved at each Fetch call. backoffBase is
// the backoff time unit: the wait before attempt n+1 is backoffBase * 2^n.
func New(p provider.MarketData, start, end time.Time, maxAttempts int, backoffBase time.Duration) *Fetcher {
	return &Fetcher{
		provider:    p,
		start:       start,
		end:         end,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         slog.Default().With("component", "fetch"),
	}
}

// Fetch downloads the series for ticker. It returns (points, nil) on
// success, (nil, nil) when all attempts were exhausted (the caller skips the
// ticker), and an error only when the context was cancelled.
func (f *Fetcher) Fetch(ctx context.Context, ticker string) ([]domain.SeriesPoint, error) {
	end := f.end
	if end.IsZero() {
		end = domain.Day(time.Now())
	}

	var points []domain.SeriesPoint

	// First wait is 2x the base so the sequence of delays is
	// base*2, base*4, ... matching an exponent that starts at attempt 1.
	err := util.RetryNotify(ctx, f.maxAttempts, f.backoffBase*2, func() error {
		got, err := f.provider.FetchDaily(ctx, ticker, f.start, end)
		if err != nil {
			return err
		}
		if len(got) == 0 {
			return ErrEmptySeries
		}
		points = got
		return nil
	}, func(attempt int, err error, next time.Duration) {
		f.log.Warn("fetch attempt failed, retrying",
			"ticker", ticker,
			"attempt", attempt,
			"max_attempts", f.maxAttempts,
			"backoff", next,
			"err", err,
		)
	})

	if err == nil {
		return points, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.log.Warn("giving up on ticker after exhausting retries",
		"ticker", ticker,
		"attempts", f.maxAttempts,
		"err", err,
	)
	return nil, nil
}
