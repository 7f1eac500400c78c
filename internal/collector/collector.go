package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/calculator"
	"StocksDashboard/internal/model"
)

// MockFetcher returns deterministic synthetic data for development and testing.
type MockFetcher struct {
	Price float64         // starting price, defaults to 100
	Fail  map[string]bool // symbols that report ErrDataUnavailable
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchDailyCloses produces one close per weekday in [start, end] as a
// random walk seeded by the symbol, so repeated calls agree.
func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	if m.Fail[symbol] {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrDataUnavailable)
	}
	base := m.Price
	if base <= 0 {
		base = 100
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	var raw []model.PricePoint
	p := base
	for d := dayOf(start); !d.After(dayOf(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p *= 1 + rng.NormFloat64()*0.015 + 0.0003
		raw = append(raw, model.PricePoint{Date: d, Price: p})
	}
	return buildSeries(symbol, raw, start, end)
}

// Collector orchestrates data fetching and moving-average computation.
type Collector struct {
	Fetcher     Fetcher
	ShortWindow int
	LongWindow  int
	Timeout     time.Duration // per fetch; zero means no extra deadline
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, shortWindow, longWindow int, timeout time.Duration) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		ShortWindow: shortWindow,
		LongWindow:  longWindow,
		Timeout:     timeout,
	}
}

// Collect fetches one symbol's history exactly once and derives its short and
// long moving averages over the full fetched range.
func (c *Collector) Collect(ctx context.Context, symbol string, start, end time.Time) (*model.SymbolData, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRequest,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	fetchCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	began := time.Now()
	price, err := c.Fetcher.FetchDailyCloses(fetchCtx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	log.WithFields(log.Fields{
		"symbol": symbol,
		"source": c.Fetcher.Name(),
		"points": price.Len(),
		"took":   time.Since(began).Round(time.Millisecond),
	}).Debug("fetched daily closes")

	short, long, err := calculator.ShortAndLong(price, c.ShortWindow, c.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("moving averages for %s: %w", symbol, err)
	}
	if long.Len() > 0 && !long.Points[long.Len()-1].Valid {
		log.Warnf("%s: only %d points, %d-day SMA undefined", symbol, price.Len(), c.LongWindow)
	}
	return &model.SymbolData{Price: price, Short: short, Long: long}, nil
}
