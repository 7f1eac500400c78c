package display

import (
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/chart"
	"StocksDashboard/internal/dashboard"
)

type progressDisplay struct {
	dashboard.Display
	bar *progressbar.ProgressBar
}

// WithProgress advances bar once per finished symbol (charted or failed).
func WithProgress(d dashboard.Display, bar *progressbar.ProgressBar) dashboard.Display {
	return &progressDisplay{Display: d, bar: bar}
}

func (p *progressDisplay) Chart(spec *chart.ChartSpec) {
	p.Display.Chart(spec)
	p.advance()
}

func (p *progressDisplay) Error(text string) {
	p.Display.Error(text)
	p.advance()
}

func (p *progressDisplay) advance() {
	if err := p.bar.Add(1); err != nil {
		log.Warnf("update progressbar fail: %v", err)
	}
}
