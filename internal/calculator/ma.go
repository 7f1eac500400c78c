package calculator

import (
	"errors"

	"StocksDashboard/internal/model"
)

// ErrInvalidWindow is returned for a window below 1.
var ErrInvalidWindow = errors.New("window must be positive")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidWindow
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingSMA computes the trailing simple moving average at every index of
// series. Entries before the first full window are left undefined; a window
// longer than the series yields an all-undefined result.
func RollingSMA(series *model.PriceSeries, window int) (*model.MovingAverageSeries, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	prices := series.Prices()
	out := &model.MovingAverageSeries{
		Window: window,
		Points: make([]model.MAPoint, len(prices)),
	}
	for i, p := range series.Points {
		out.Points[i].Date = p.Date
		if i < window-1 {
			continue
		}
		// Each window is summed from scratch to stay bit-identical with a naive mean.
		mean, err := CalculateSMA(prices[:i+1], window)
		if err != nil {
			return nil, err
		}
		out.Points[i].Value = mean
		out.Points[i].Valid = true
	}
	return out, nil
}

// ShortAndLong returns the short and long rolling averages of series.
func ShortAndLong(series *model.PriceSeries, shortWindow, longWindow int) (short, long *model.MovingAverageSeries, err error) {
	short, err = RollingSMA(series, shortWindow)
	if err != nil {
		return nil, nil, err
	}
	long, err = RollingSMA(series, longWindow)
	if err != nil {
		return nil, nil, err
	}
	return short, long, nil
}
