package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"StocksDashboard/internal/chart"
)

// Terminal prints one summary row per symbol instead of interactive charts.
type Terminal struct {
	w      io.Writer
	title  string
	status string
	symbol string
	rows   [][]string
}

// NewTerminal creates a Terminal writing to w on Flush.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Title(text string) { t.title = text }

func (t *Terminal) Text(text string) { t.status = text }

func (t *Terminal) Subheader(text string) {
	t.symbol = strings.TrimPrefix(text, "Stock: ")
}

func (t *Terminal) Chart(spec *chart.ChartSpec) {
	price := spec.Data[0]
	first, last := "-", "-"
	if n := len(price.X); n > 0 {
		first, last = price.X[0], price.X[n-1]
	}
	t.rows = append(t.rows, []string{
		t.symbol,
		strconv.Itoa(len(price.X)),
		first,
		last,
		lastValue(price),
		lastValue(spec.Data[1]),
		lastValue(spec.Data[2]),
		"OK",
	})
}

func (t *Terminal) Error(text string) {
	t.rows = append(t.rows, []string{t.symbol, "0", "-", "-", "-", "-", "-", text})
}

// Flush writes the title, status line and summary table.
func (t *Terminal) Flush() error {
	if _, err := fmt.Fprintf(t.w, "%s\n%s\n\n", t.title, t.status); err != nil {
		return err
	}
	table := tablewriter.NewWriter(t.w)
	table.SetHeader([]string{"Symbol", "Points", "From", "To", "Last Close", "20-day SMA", "200-day SMA", "Status"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})
	table.SetAutoWrapText(false)
	table.AppendBulk(t.rows)
	table.Render()
	return nil
}

func lastValue(tr chart.Trace) string {
	v, ok := tr.LastValue()
	if !ok {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
