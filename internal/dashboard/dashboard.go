package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/chart"
	"StocksDashboard/internal/config"
	"StocksDashboard/internal/model"
	"StocksDashboard/internal/recorder"
)

// StatusLayout formats the "last update" timestamp.
const StatusLayout = "2006-01-02 15:04:05.000000"

// ErrUnknownSymbol is returned for a symbol that is not on the dashboard.
var ErrUnknownSymbol = errors.New("symbol not on the dashboard")

// Display receives the finished page pieces in order.
type Display interface {
	Title(text string)
	Text(text string)
	Subheader(text string)
	Chart(spec *chart.ChartSpec)
	Error(text string)
}

// SymbolCollector fetches one symbol and derives its moving averages.
type SymbolCollector interface {
	Collect(ctx context.Context, symbol string, start, end time.Time) (*model.SymbolData, error)
}

// Dashboard drives the fetch -> average -> trim -> chart loop over the symbol list.
type Dashboard struct {
	Title     string
	Pipeline  config.Pipeline
	Collector SymbolCollector
	Recorder  recorder.Recorder
	Now       func() time.Time
}

// New creates a Dashboard. A nil recorder disables run history.
func New(title string, p config.Pipeline, col SymbolCollector, rec recorder.Recorder) *Dashboard {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Dashboard{
		Title:     title,
		Pipeline:  p,
		Collector: col,
		Recorder:  rec,
		Now:       time.Now,
	}
}

// Symbols returns the dashboard's symbols in display order.
func (d *Dashboard) Symbols() []string {
	return d.Pipeline.Symbols
}

// Window returns the fetch range ending now.
func (d *Dashboard) Window() (start, end time.Time) {
	end = d.Now()
	return YearsBefore(end, d.Pipeline.LookbackYears), end
}

// Run renders every symbol, strictly in list order, onto out and records the
// outcome. Under the abort policy the first failing symbol ends the run and
// its error is returned; under isolate the failure is shown inline and the
// loop continues. A canceled context stops the loop before the next symbol.
func (d *Dashboard) Run(ctx context.Context, trigger string, out Display) (*recorder.RunRecord, error) {
	start, end := d.Window()
	run := &recorder.RunRecord{StartedAt: end, EndDate: end, Trigger: trigger}

	out.Title(d.Title)
	out.Text("Last Update Date: " + end.Format(StatusLayout))

	var runErr error
	for _, symbol := range d.Pipeline.Symbols {
		if err := ctx.Err(); err != nil {
			run.Aborted = true
			runErr = fmt.Errorf("render stopped before %s: %w", symbol, err)
			break
		}
		out.Subheader("Stock: " + symbol)

		spec, points, err := d.render(ctx, symbol, start, end)
		if err != nil {
			log.WithField("symbol", symbol).Warnf("render failed: %v", err)
			out.Error(fmt.Sprintf("Could not load data for %s: %v", symbol, err))
			run.Symbols = append(run.Symbols, recorder.SymbolOutcome{
				Symbol: symbol, Status: recorder.StatusFailed, Error: err.Error(),
			})
			if d.Pipeline.FailurePolicy == config.PolicyAbort {
				run.Aborted = true
				runErr = fmt.Errorf("render %s: %w", symbol, err)
				break
			}
			continue
		}

		out.Chart(spec)
		run.Symbols = append(run.Symbols, recorder.SymbolOutcome{
			Symbol: symbol, Points: points, Status: recorder.StatusOK,
		})
	}

	run.Duration = d.Now().Sub(run.StartedAt)
	log.WithFields(log.Fields{
		"trigger":  trigger,
		"symbols":  len(run.Symbols),
		"failed":   run.Failed(),
		"aborted":  run.Aborted,
		"duration": run.Duration.Round(time.Millisecond),
	}).Info("dashboard rendered")
	if err := d.Recorder.RecordRun(run); err != nil {
		log.Errorf("record run: %v", err)
	}
	return run, runErr
}

// Chart runs the pipeline for a single dashboard symbol.
func (d *Dashboard) Chart(ctx context.Context, symbol string) (*chart.ChartSpec, error) {
	if !lo.Contains(d.Pipeline.Symbols, symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	start, end := d.Window()
	spec, _, err := d.render(ctx, symbol, start, end)
	return spec, err
}

func (d *Dashboard) render(ctx context.Context, symbol string, start, end time.Time) (*chart.ChartSpec, int, error) {
	data, err := d.Collector.Collect(ctx, symbol, start, end)
	if err != nil {
		return nil, 0, err
	}
	n := d.Pipeline.DisplayPoints
	price := data.Price.Tail(n)
	spec := chart.BuildChart(price, data.Short.Tail(n), data.Long.Tail(n), symbol)
	return spec, price.Len(), nil
}

// YearsBefore subtracts whole years from t, clipping to the last day of the
// month when the day does not exist (Feb 29 -> Feb 28).
func YearsBefore(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y-years, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
