package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultPendingScanSpec runs the pending scan every 15 seconds.
const DefaultPendingScanSpec = "*/15 * * * * *"

type pendingScanner interface {
	RescanPending(ctx context.Context) int
}

// PendingScanJob periodically retries pending orders that no timer or event is
// going to retry, e.g. after a store failure aborted their last attempt.
type PendingScanJob struct {
	scanner pendingScanner
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewPendingScanJob creates a new job that calls RescanPending on the given schedule.
// The schedule is a cron expression with a leading seconds field.
func NewPendingScanJob(scanner pendingScanner, spec string, logger *slog.Logger) *PendingScanJob {
	return &PendingScanJob{
		scanner: scanner,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "pending_scan_job"),
	}
}

// Run performs one scan.
func (j *PendingScanJob) Run(ctx context.Context) {
	if retries := j.scanner.RescanPending(ctx); retries > 0 {
		j.logger.DebugContext(ctx, "Pending scan scheduled retries", "retries", retries)
	}
}

// Start schedules the job.
func (j *PendingScanJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Pending scan job started", "spec", j.spec)
	return nil
}

// Stop stops the pending scan job.
func (j *PendingScanJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Pending scan job stopped")
}
