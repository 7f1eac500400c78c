package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"StocksDashboard/internal/chart"
	"StocksDashboard/internal/collector"
	"StocksDashboard/internal/config"
	"StocksDashboard/internal/dashboard"
	"StocksDashboard/internal/recorder"
)

// MockDashboard implements DashboardService for testing
type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Run(ctx context.Context, trigger string, out dashboard.Display) (*recorder.RunRecord, error) {
	args := m.Called(ctx, trigger, out)
	run, _ := args.Get(0).(*recorder.RunRecord)
	return run, args.Error(1)
}

func (m *MockDashboard) Chart(ctx context.Context, symbol string) (*chart.ChartSpec, error) {
	args := m.Called(ctx, symbol)
	spec, _ := args.Get(0).(*chart.ChartSpec)
	return spec, args.Error(1)
}

func (m *MockDashboard) Symbols() []string {
	return m.Called().Get(0).([]string)
}

// MockHistory implements RunHistory for testing
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) RecentRuns(limit int) ([]recorder.RunRecord, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]recorder.RunRecord)
	return runs, args.Error(1)
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func serve(h *APIHandler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	h.SetupRoutes().ServeHTTP(w, req)
	return w
}

// newRealHandler wires the real dashboard over the mock fetcher.
func newRealHandler(policy string, fail map[string]bool, symbols ...string) *APIHandler {
	p := config.Pipeline{
		Symbols:       symbols,
		LookbackYears: 3,
		DisplayPoints: 504,
		ShortWindow:   20,
		LongWindow:    200,
		FailurePolicy: policy,
	}
	col := collector.NewCollector(&collector.MockFetcher{Fail: fail}, p.ShortWindow, p.LongWindow, time.Second)
	d := dashboard.New("Stocks Dashboard", p, col, nil)
	d.Now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) }
	return NewAPIHandler(d, nil, quietLogger())
}

func TestGetDashboardPage_RendersEverySymbol(t *testing.T) {
	h := newRealHandler(config.PolicyIsolate, map[string]bool{"BAD": true}, "AAPL", "BAD", "MSFT")

	w := serve(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeaderKey))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Stocks Dashboard", doc.Find("h1").Text())
	assert.Equal(t, "Last Update Date: 2026-10-19 08:30:00.000000", doc.Find("pre.status").Text())
	assert.Equal(t, 3, doc.Find("section.stock h2").Length())
	assert.Equal(t, 2, doc.Find("div.chart").Length())
	assert.Contains(t, doc.Find("div.error").Text(), "BAD")
}

func TestGetDashboardPage_AbortKeepsEarlierCharts(t *testing.T) {
	h := newRealHandler(config.PolicyAbort, map[string]bool{"BAD": true}, "AAPL", "BAD", "MSFT")

	w := serve(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("div.chart").Length())
	assert.Equal(t, 2, doc.Find("section.stock").Length(), "MSFT is never reached")
	assert.Contains(t, doc.Find("div.run-error").Text(), "data unavailable")
}

func TestGetDashboard_JSON(t *testing.T) {
	h := newRealHandler(config.PolicyIsolate, nil, "AAPL", "GOOG")

	w := serve(h, http.MethodGet, "/api/v1/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Title    string `json:"title"`
		Status   string `json:"status"`
		Aborted  bool   `json:"aborted"`
		Sections []struct {
			Heading string          `json:"heading"`
			Chart   json.RawMessage `json:"chart"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "Stocks Dashboard", page.Title)
	assert.False(t, page.Aborted)
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "Stock: AAPL", page.Sections[0].Heading)
	assert.Equal(t, "Stock: GOOG", page.Sections[1].Heading)
	assert.NotEmpty(t, page.Sections[1].Chart)
}

func TestGetChart(t *testing.T) {
	spec := chart.BuildChart(nil, nil, nil, "AAPL")
	tests := []struct {
		name       string
		path       string
		setup      func(*MockDashboard)
		wantStatus int
		wantBody   string
	}{
		{
			name: "ok, symbol normalized",
			path: "/api/v1/charts/aapl",
			setup: func(m *MockDashboard) {
				m.On("Chart", mock.Anything, "AAPL").Return(spec, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"rangeselector"`,
		},
		{
			name:       "unknown symbol",
			path:       "/api/v1/charts/IBM",
			setup:      func(m *MockDashboard) {},
			wantStatus: http.StatusNotFound,
			wantBody:   "Unknown symbol: IBM",
		},
		{
			name: "data unavailable",
			path: "/api/v1/charts/AAPL",
			setup: func(m *MockDashboard) {
				m.On("Chart", mock.Anything, "AAPL").Return(nil, fmt.Errorf("fetch AAPL: %w", collector.ErrDataUnavailable))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Data unavailable for AAPL",
		},
		{
			name: "internal error",
			path: "/api/v1/charts/AAPL",
			setup: func(m *MockDashboard) {
				m.On("Chart", mock.Anything, "AAPL").Return(nil, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockDashboard{}
			m.On("Symbols").Return([]string{"AAPL", "MSFT"})
			tt.setup(m)

			w := serve(NewAPIHandler(m, nil, quietLogger()), http.MethodGet, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			m.AssertExpectations(t)
		})
	}
}

func TestGetRuns(t *testing.T) {
	runs := []recorder.RunRecord{{
		ID:      7,
		Trigger: recorder.TriggerSchedule,
		Symbols: []recorder.SymbolOutcome{{Symbol: "AAPL", Points: 504, Status: recorder.StatusOK}},
	}}
	hist := &MockHistory{}
	hist.On("RecentRuns", DefaultRunsLimit).Return(runs, nil).Once()
	hist.On("RecentRuns", 5).Return(nil, nil).Once()

	h := NewAPIHandler(&MockDashboard{}, hist, quietLogger())

	w := serve(h, http.MethodGet, "/api/v1/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"trigger":"SCHEDULE"`)
	assert.Contains(t, w.Body.String(), `"symbol":"AAPL"`)

	w = serve(h, http.MethodGet, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, bad := range []string{"0", "-1", "abc", "100000"} {
		w = serve(h, http.MethodGet, "/api/v1/runs?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
	hist.AssertExpectations(t)
}

func TestGetRuns_HistoryError(t *testing.T) {
	hist := &MockHistory{}
	hist.On("RecentRuns", DefaultRunsLimit).Return(nil, errors.New("db locked"))

	w := serve(NewAPIHandler(&MockDashboard{}, hist, quietLogger()), http.MethodGet, "/api/v1/runs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db locked")
}

func TestHealthCheck(t *testing.T) {
	m := &MockDashboard{}
	m.On("Symbols").Return(config.DefaultSymbols)

	w := serve(NewAPIHandler(m, nil, quietLogger()), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Len(t, body["symbols"], 10)
}

func TestMiddleware(t *testing.T) {
	m := &MockDashboard{}
	m.On("Symbols").Return([]string{"AAPL"})
	h := NewAPIHandler(m, nil, quietLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeaderKey, "req-123")
	h.SetupRoutes().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeaderKey))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(h, http.MethodOptions, "/health")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNewServer(t *testing.T) {
	m := &MockDashboard{}
	m.On("Symbols").Return([]string{"AAPL"})
	srv := NewAPIHandler(m, nil, quietLogger()).NewServer(":0")
	assert.Equal(t, ":0", srv.Addr)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), ServiceName))
}
