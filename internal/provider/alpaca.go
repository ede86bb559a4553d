package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockpipe/internal/domain"
	"stockpipe/internal/util"
)

// Compile-time interface check.
var _ MarketData = (*AlpacaProvider)(nil)

// AlpacaProvider fetches daily bars from the Alpaca market-data API. Bars are
// requested split- and dividend-adjusted so Close lines up with the adjusted
// close used by the analytics view. A token-bucket limiter caps the API call
// rate independently of the pipeline's inter-request delay.
type AlpacaProvider struct {
	client  *marketdata.Client
	limiter *util.RateLimiter
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials and
// rate limit. dataURL may be empty to use the SDK default endpoint.
func NewAlpacaProvider(apiKey, apiSecret, dataURL string, rateLimitPerMin int) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaProvider{
		client:  marketdata.NewClient(opts),
		limiter: util.NewRateLimiter(rateLimitPerMin),
	}
}

// FetchDaily retrieves adjusted daily bars for symbol in [start, end].
func (p *AlpacaProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.SeriesPoint, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	bars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	points := make([]domain.SeriesPoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, domain.SeriesPoint{
			Date:   b.Timestamp,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return points, nil
}
