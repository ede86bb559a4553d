// Package normalize reshapes raw provider series into canonical price
// observations.
package normalize

import (
	"math"

	"stockpipe/internal/domain"
)

// Series converts raw points for ticker into canonical rows. Rows with a
// missing price (NaN or infinite) are dropped: a row without a usable price
// cannot feed the analytics view. Dates are reduced to pure UTC calendar
// dates so downstream comparisons never see a timezone. An empty input
// produces an empty output, not an error.
func Series(points []domain.SeriesPoint, ticker string) []domain.PriceObservation {
	if len(points) == 0 {
		return nil
	}

	rows := make([]domain.PriceObservation, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		rows = append(rows, domain.PriceObservation{
			Date:   domain.Day(p.Date),
			Ticker: ticker,
			Price:  p.Close,
			Volume: p.Volume,
		})
	}
	return rows
}
