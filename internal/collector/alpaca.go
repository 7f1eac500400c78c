package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"StocksDashboard/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market data API.
type AlpacaFetcher struct {
	Client *marketdata.Client
	Feed   marketdata.Feed
}

// NewAlpacaFetcher creates a fetcher on the IEX feed. An empty baseURL keeps
// the client default. Rate-limited responses are not retried and every
// request is bounded by timeout.
func NewAlpacaFetcher(apiKey, apiSecret, baseURL string, timeout time.Duration) *AlpacaFetcher {
	return &AlpacaFetcher{
		Client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			BaseURL:    baseURL,
			RetryLimit: -1, // zero would mean the client default of 10 retries
			HTTPClient: &http.Client{Timeout: timeout},
		}),
		Feed: marketdata.IEX,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

type barsResult struct {
	bars []marketdata.Bar
	err  error
}

// FetchDailyCloses requests adjusted daily bars once. The client takes no
// context, so the call runs aside and ctx bounds how long we wait for it.
func (f *AlpacaFetcher) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("alpaca fetch %s: %w: %w", symbol, ErrDataUnavailable, err)
	}

	done := make(chan barsResult, 1)
	go func() {
		bars, err := f.Client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.All,
			Start:      start,
			End:        end,
			Feed:       f.Feed,
		})
		done <- barsResult{bars: bars, err: err}
	}()

	var res barsResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("alpaca fetch %s: %w: %w", symbol, ErrDataUnavailable, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("alpaca fetch %s: %w: %w", symbol, ErrDataUnavailable, res.err)
	}

	raw := make([]model.PricePoint, len(res.bars))
	for i, bar := range res.bars {
		raw[i] = model.PricePoint{Date: bar.Timestamp, Price: bar.Close}
	}
	return buildSeries(symbol, raw, start, end)
}
