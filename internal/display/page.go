package display

import (
	"context"

	"StocksDashboard/internal/chart"
	"StocksDashboard/internal/dashboard"
	"StocksDashboard/internal/recorder"
)

// Section is one symbol's block on the page: a heading followed by either
// its chart or an inline error.
type Section struct {
	Heading string           `json:"heading"`
	Chart   *chart.ChartSpec `json:"chart,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Page collects a render pass for HTML or JSON output.
type Page struct {
	Name     string    `json:"title"`
	Status   string    `json:"status"`
	Sections []Section `json:"sections"`
	Aborted  bool      `json:"aborted"`
	Err      string    `json:"error,omitempty"`
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{Sections: []Section{}}
}

func (p *Page) Title(text string) { p.Name = text }

func (p *Page) Text(text string) { p.Status = text }

func (p *Page) Subheader(text string) {
	p.Sections = append(p.Sections, Section{Heading: text})
}

func (p *Page) Chart(spec *chart.ChartSpec) { p.current().Chart = spec }

func (p *Page) Error(text string) { p.current().Error = text }

// Fail marks the page as cut short by err.
func (p *Page) Fail(err error) {
	p.Aborted = true
	p.Err = err.Error()
}

// ChartCount returns the number of sections that carry a chart.
func (p *Page) ChartCount() int {
	n := 0
	for _, s := range p.Sections {
		if s.Chart != nil {
			n++
		}
	}
	return n
}

func (p *Page) current() *Section {
	if len(p.Sections) == 0 {
		p.Sections = append(p.Sections, Section{})
	}
	return &p.Sections[len(p.Sections)-1]
}

// Runner renders one dashboard pass onto a display.
type Runner interface {
	Run(ctx context.Context, trigger string, out dashboard.Display) (*recorder.RunRecord, error)
}

// RenderPage runs r onto a fresh page. A run cut short still returns the
// partial page, marked as failed, together with the error.
func RenderPage(ctx context.Context, r Runner, trigger string) (*Page, error) {
	page := NewPage()
	if _, err := r.Run(ctx, trigger, page); err != nil {
		page.Fail(err)
		return page, err
	}
	return page, nil
}
