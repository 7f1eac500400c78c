package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"StocksDashboard/internal/display"
	"StocksDashboard/internal/recorder"
)

// Scheduler renders dashboard snapshots on a cron schedule.
type Scheduler struct {
	Cron         *cron.Cron
	Dashboard    display.Runner
	SnapshotPath string
	Ctx          context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, d display.Runner, snapshotPath string) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Dashboard:    d,
		SnapshotPath: snapshotPath,
		Ctx:          ctx,
	}
}

// Register adds the snapshot task. An empty expression leaves the scheduler idle.
func (s *Scheduler) Register(snapshotCron string) error {
	if snapshotCron == "" {
		log.Info("snapshot cron not configured")
		return nil
	}
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	log.Infof("snapshot task registered: %q -> %s", snapshotCron, s.SnapshotPath)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunSnapshotNow renders a snapshot immediately (for manual trigger / run_on_start).
func (s *Scheduler) RunSnapshotNow() error {
	return s.RenderSnapshot(recorder.TriggerSchedule)
}

func (s *Scheduler) snapshotTask() {
	log.Info("running snapshot task")
	if err := s.RenderSnapshot(recorder.TriggerSchedule); err != nil {
		log.Errorf("snapshot: %v", err)
	}
}

// RenderSnapshot runs the dashboard once and writes the page to SnapshotPath.
// A run cut short by a failing symbol is still written, with its error shown;
// a canceled context writes nothing.
func (s *Scheduler) RenderSnapshot(trigger string) error {
	page, err := display.RenderPage(s.Ctx, s.Dashboard, trigger)
	if err != nil {
		// A fetch timeout inside the run is a symbol failure; only our own
		// context ending means the run was canceled.
		if ctxErr := s.Ctx.Err(); ctxErr != nil {
			return fmt.Errorf("render snapshot: %w", ctxErr)
		}
		log.Warnf("snapshot rendered partially: %v", err)
	}
	if err := display.WriteHTMLFile(s.SnapshotPath, page); err != nil {
		return err
	}
	log.Infof("snapshot written: %s (%d charts)", s.SnapshotPath, page.ChartCount())
	return nil
}
