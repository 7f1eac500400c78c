// Package chart assembles interactive price charts in the Plotly figure
// format: a list of traces plus a layout, serializable straight to JSON.
package chart

import (
	"fmt"

	"StocksDashboard/internal/model"
)

// Trace colors for the moving averages.
const (
	ShortColor = "#20fc03"
	LongColor  = "#fc0303"
)

// Windows used to label a moving-average trace whose series is missing.
const (
	DefaultShortWindow = 20
	DefaultLongWindow  = 200
)

const dateLayout = "2006-01-02"

type Line struct {
	Color string `json:"color,omitempty"`
}

// Trace is one scatter series. Nil Y entries serialize as null and are not plotted.
type Trace struct {
	Type string     `json:"type"`
	Mode string     `json:"mode"`
	Name string     `json:"name"`
	X    []string   `json:"x"`
	Y    []*float64 `json:"y"`
	Line *Line      `json:"line,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

// RangeButton is a preset x-axis window such as "last 6 months".
type RangeButton struct {
	Count    int    `json:"count,omitempty"`
	Label    string `json:"label,omitempty"`
	Step     string `json:"step"`
	StepMode string `json:"stepmode,omitempty"`
}

type RangeSelector struct {
	Buttons []RangeButton `json:"buttons"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

type Axis struct {
	Type          string         `json:"type,omitempty"`
	Title         Title          `json:"title"`
	RangeSelector *RangeSelector `json:"rangeselector,omitempty"`
	RangeSlider   *RangeSlider   `json:"rangeslider,omitempty"`
}

type Layout struct {
	Title Title `json:"title"`
	XAxis Axis  `json:"xaxis"`
	YAxis Axis  `json:"yaxis"`
}

// ChartSpec is a complete renderable figure.
type ChartSpec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// TraceCount returns the number of traces.
func (c *ChartSpec) TraceCount() int { return len(c.Data) }

// ButtonCount returns the number of range-selector buttons.
func (c *ChartSpec) ButtonCount() int {
	if c.Layout.XAxis.RangeSelector == nil {
		return 0
	}
	return len(c.Layout.XAxis.RangeSelector.Buttons)
}

// RangeButtons returns the presets: 1 month, 6 months, year to date, 1 year, all.
func RangeButtons() []RangeButton {
	return []RangeButton{
		{Count: 1, Label: "1m", Step: "month", StepMode: "backward"},
		{Count: 6, Label: "6m", Step: "month", StepMode: "backward"},
		{Count: 1, Label: "YTD", Step: "year", StepMode: "todate"},
		{Count: 1, Label: "1y", Step: "year", StepMode: "backward"},
		{Step: "all"},
	}
}

// SMALabel names a moving-average trace, e.g. "20-day SMA".
func SMALabel(window int) string {
	return fmt.Sprintf("%d-day SMA", window)
}

// BuildChart overlays the price and its two moving averages on one date axis.
// It never fails; series with mismatched dates simply plot where they fall.
func BuildChart(price *model.PriceSeries, short, long *model.MovingAverageSeries, title string) *ChartSpec {
	return &ChartSpec{
		Data: []Trace{
			priceTrace(price, title),
			maTrace(short, DefaultShortWindow, ShortColor),
			maTrace(long, DefaultLongWindow, LongColor),
		},
		Layout: Layout{
			Title: Title{Text: title},
			XAxis: Axis{
				Type:          "date",
				Title:         Title{Text: "Date"},
				RangeSelector: &RangeSelector{Buttons: RangeButtons()},
				RangeSlider:   &RangeSlider{Visible: false},
			},
			YAxis: Axis{Title: Title{Text: "Price"}},
		},
	}
}

func priceTrace(s *model.PriceSeries, name string) Trace {
	t := Trace{Type: "scatter", Mode: "lines", Name: name, X: []string{}, Y: []*float64{}}
	if s == nil {
		return t
	}
	for _, p := range s.Points {
		v := p.Price
		t.X = append(t.X, p.Date.Format(dateLayout))
		t.Y = append(t.Y, &v)
	}
	return t
}

// maTrace labels the trace from the series window, or from window when the
// series is nil or carries none.
func maTrace(s *model.MovingAverageSeries, window int, color string) Trace {
	t := Trace{Type: "scatter", Mode: "lines", Name: SMALabel(window), X: []string{}, Y: []*float64{}, Line: &Line{Color: color}}
	if s == nil {
		return t
	}
	if s.Window > 0 {
		t.Name = SMALabel(s.Window)
	}
	for _, p := range s.Points {
		t.X = append(t.X, p.Date.Format(dateLayout))
		if !p.Valid {
			t.Y = append(t.Y, nil)
			continue
		}
		v := p.Value
		t.Y = append(t.Y, &v)
	}
	return t
}

// LastValue returns the most recent plotted value of a trace.
func (t Trace) LastValue() (float64, bool) {
	for i := len(t.Y) - 1; i >= 0; i-- {
		if t.Y[i] != nil {
			return *t.Y[i], true
		}
	}
	return 0, false
}
