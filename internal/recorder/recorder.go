package recorder

import "time"

// Symbol outcome statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Run triggers.
const (
	TriggerHTTP     = "HTTP"
	TriggerSchedule = "SCHEDULE"
	TriggerCLI      = "CLI"
)

// SymbolOutcome records how one symbol fared during a render pass.
type SymbolOutcome struct {
	Symbol string `json:"symbol"`
	Points int    `json:"points"` // points charted after trimming
	Status string `json:"status"` // StatusOK or StatusFailed
	Error  string `json:"error,omitempty"`
}

// RunRecord summarizes one render pass. Price data is never stored.
type RunRecord struct {
	ID        int64           `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	EndDate   time.Time       `json:"end_date"`
	Trigger   string          `json:"trigger"`
	Duration  time.Duration   `json:"duration_ns"`
	Aborted   bool            `json:"aborted"`
	Symbols   []SymbolOutcome `json:"symbols"`
}

// Failed returns the number of symbols that could not be charted.
func (r *RunRecord) Failed() int {
	n := 0
	for _, s := range r.Symbols {
		if s.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Recorder persists render history for later inspection.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
