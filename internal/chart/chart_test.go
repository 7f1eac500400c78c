package chart

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StocksDashboard/internal/calculator"
	"StocksDashboard/internal/model"
)

func constantSeries(symbol string, n int, price float64) *model.PriceSeries {
	start := time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		s.Points = append(s.Points, model.PricePoint{Date: start.AddDate(0, 0, i), Price: price})
	}
	return s
}

func TestBuildChart_ConstantSeries(t *testing.T) {
	price := constantSeries("TEST", 756, 100.0)
	short, long, err := calculator.ShortAndLong(price, 20, 200)
	require.NoError(t, err)

	spec := BuildChart(price.Tail(504), short.Tail(504), long.Tail(504), "TEST")

	require.Equal(t, 3, spec.TraceCount())
	assert.Equal(t, 5, spec.ButtonCount())
	assert.Equal(t, "TEST", spec.Data[0].Name)
	assert.Equal(t, "20-day SMA", spec.Data[1].Name)
	assert.Equal(t, "200-day SMA", spec.Data[2].Name)
	assert.Equal(t, ShortColor, spec.Data[1].Line.Color)
	assert.Equal(t, LongColor, spec.Data[2].Line.Color)
	assert.Nil(t, spec.Data[0].Line)

	assert.Equal(t, "TEST", spec.Layout.Title.Text)
	assert.Equal(t, "Price", spec.Layout.YAxis.Title.Text)
	assert.Equal(t, "Date", spec.Layout.XAxis.Title.Text)
	assert.Equal(t, "date", spec.Layout.XAxis.Type)
	assert.False(t, spec.Layout.XAxis.RangeSlider.Visible)

	for _, tr := range spec.Data {
		assert.Len(t, tr.X, 504)
		assert.Len(t, tr.Y, 504)
		assert.Equal(t, "lines", tr.Mode)
	}
	v, ok := spec.Data[1].LastValue()
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestBuildChart_UndefinedAsNull(t *testing.T) {
	price := constantSeries("TEST", 30, 50)
	short, long, err := calculator.ShortAndLong(price, 20, 200)
	require.NoError(t, err)

	spec := BuildChart(price, short, long, "TEST")
	raw, err := json.Marshal(spec)
	require.NoError(t, err)

	var decoded struct {
		Data []struct {
			Y []*float64 `json:"y"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded.Data[1].Y[18])
	assert.NotNil(t, decoded.Data[1].Y[19])
	for _, y := range decoded.Data[2].Y {
		assert.Nil(t, y)
	}
	_, ok := spec.Data[2].LastValue()
	assert.False(t, ok)
}

func TestBuildChart_TotalOnEmptyInput(t *testing.T) {
	spec := BuildChart(&model.PriceSeries{}, &model.MovingAverageSeries{Window: 20}, &model.MovingAverageSeries{Window: 200}, "EMPTY")
	assert.Equal(t, 3, spec.TraceCount())
	assert.Equal(t, 5, spec.ButtonCount())
	assert.Empty(t, spec.Data[0].X)

	spec = BuildChart(nil, nil, nil, "NIL")
	assert.Equal(t, 3, spec.TraceCount())
	assert.Equal(t, 5, spec.ButtonCount())
	assert.Equal(t, "NIL", spec.Data[0].Name)
	assert.Equal(t, "20-day SMA", spec.Data[1].Name)
	assert.Equal(t, "200-day SMA", spec.Data[2].Name)

	spec = BuildChart(nil, &model.MovingAverageSeries{}, &model.MovingAverageSeries{Window: 50}, "ZERO")
	assert.Equal(t, "20-day SMA", spec.Data[1].Name, "zero window falls back")
	assert.Equal(t, "50-day SMA", spec.Data[2].Name, "series window wins")
}

func TestRangeButtonsJSON(t *testing.T) {
	raw, err := json.Marshal(RangeButtons())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count":1,"label":"1m","step":"month","stepmode":"backward"},
		{"count":6,"label":"6m","step":"month","stepmode":"backward"},
		{"count":1,"label":"YTD","step":"year","stepmode":"todate"},
		{"count":1,"label":"1y","step":"year","stepmode":"backward"},
		{"step":"all"}
	]`, string(raw))
}

func TestDatesFormatted(t *testing.T) {
	spec := BuildChart(constantSeries("X", 2, 1), nil, nil, "X")
	assert.Equal(t, []string{"2023-10-19", "2023-10-20"}, spec.Data[0].X)
}
