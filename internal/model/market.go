package model

import "time"

// PricePoint is one trading day's adjusted close.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries holds daily adjusted closes in strictly increasing date order.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Prices returns the price column.
func (s *PriceSeries) Prices() []float64 {
	prices := make([]float64, s.Len())
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Tail returns the last min(n, len) points as a new series with its own copy of the points.
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if s == nil {
		return &PriceSeries{}
	}
	return &PriceSeries{Symbol: s.Symbol, Points: tail(s.Points, n)}
}

// MAPoint is a moving-average value. Valid is false while fewer than
// Window observations are available.
type MAPoint struct {
	Date  time.Time
	Value float64
	Valid bool
}

// MovingAverageSeries shares the index domain of the PriceSeries it was derived from.
type MovingAverageSeries struct {
	Window int
	Points []MAPoint
}

// Len returns the number of entries, defined or not.
func (s *MovingAverageSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Tail returns the last min(n, len) entries as a new series with its own copy of the points.
func (s *MovingAverageSeries) Tail(n int) *MovingAverageSeries {
	if s == nil {
		return &MovingAverageSeries{}
	}
	return &MovingAverageSeries{Window: s.Window, Points: tail(s.Points, n)}
}

// SymbolData bundles one symbol's prices with its short and long averages.
type SymbolData struct {
	Price *PriceSeries
	Short *MovingAverageSeries
	Long  *MovingAverageSeries
}

func tail[T any](points []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(points) < n {
		n = len(points)
	}
	out := make([]T, n)
	copy(out, points[len(points)-n:])
	return out
}
