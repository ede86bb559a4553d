package normalize

import (
	"math"
	"testing"
	"time"

	"stockpipe/internal/domain"
)

func TestSeriesEmpty(t *testing.T) {
	if rows := Series(nil, "AAPL"); len(rows) != 0 {
		t.Errorf("Series(nil) = %v, want empty", rows)
	}
	if rows := Series([]domain.SeriesPoint{}, "AAPL"); len(rows) != 0 {
		t.Errorf("Series(empty) = %v, want empty", rows)
	}
}

func TestSeriesCanonicalFields(t *testing.T) {
	in := []domain.SeriesPoint{
		{Date: time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC), Close: 185.5, Volume: 50000000},
		{Date: time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC), Close: 186.0, Volume: 45000000},
	}

	rows := Series(in, "AAPL")
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", first.Ticker)
	}
	if first.Price != 185.5 {
		t.Errorf("Price = %v, want 185.5", first.Price)
	}
	if first.Volume != 50000000 {
		t.Errorf("Volume = %d, want 50000000", first.Volume)
	}
	wantDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !first.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", first.Date, wantDate)
	}
}

func TestSeriesStripsTimezone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	in := []domain.SeriesPoint{
		// Midnight ET on Jan 2 is 05:00 UTC the same day.
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, est), Close: 100, Volume: 1},
	}

	rows := Series(in, "AAPL")
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	got := rows[0].Date
	if got.Location() != time.UTC || got.Hour() != 0 {
		t.Errorf("Date = %v, want UTC midnight", got)
	}
	if got.Day() != 2 {
		t.Errorf("Date day = %d, want 2", got.Day())
	}
}

func TestSeriesDropsMissingPrices(t *testing.T) {
	in := []domain.SeriesPoint{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100, Volume: 10},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: math.NaN(), Volume: 20},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Close: math.Inf(1), Volume: 30},
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Close: 104, Volume: 40},
	}

	rows := Series(in, "AAPL")
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (NaN and Inf rows dropped)", len(rows))
	}
	if rows[0].Price != 100 || rows[1].Price != 104 {
		t.Errorf("surviving prices = %v, %v; want 100, 104", rows[0].Price, rows[1].Price)
	}
}
