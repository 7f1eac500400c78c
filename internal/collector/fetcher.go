package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"StocksDashboard/internal/model"
)

var (
	// ErrDataUnavailable marks a symbol whose history could not be obtained:
	// unknown or delisted ticker, unreachable source, or an empty series.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidRequest marks an empty symbol or a start date not before the end date.
	ErrInvalidRequest = errors.New("invalid fetch request")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyCloses returns the adjusted daily closes of symbol within [start, end].
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}

// dayOf returns the calendar day of t as UTC midnight.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// buildSeries turns raw observations into a PriceSeries: non-positive prices
// and days outside [start, end] are dropped, and repeated days keep the last
// observation so dates end up strictly increasing.
func buildSeries(symbol string, raw []model.PricePoint, start, end time.Time) (*model.PriceSeries, error) {
	first, last := dayOf(start), dayOf(end)

	points := make([]model.PricePoint, 0, len(raw))
	for _, p := range raw {
		day := dayOf(p.Date)
		if p.Price <= 0 || day.Before(first) || day.After(last) {
			continue
		}
		points = append(points, model.PricePoint{Date: day, Price: p.Price})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w: empty series", symbol, ErrDataUnavailable)
	}
	return &model.PriceSeries{Symbol: symbol, Points: out}, nil
}
