package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/core/application/dispatch"

	"github.com/robfig/cron/v3"
)

// DefaultRecoverySpec runs the recovery sweep every 30 seconds.
const DefaultRecoverySpec = "*/30 * * * * *"

type recoverer interface {
	Recover(ctx context.Context) dispatch.RecoveryReport
}

// RecoveryJob periodically repairs offers and assignments that lost their timer or
// their change notification, such as offers a previous process was still timing.
type RecoveryJob struct {
	recoverer recoverer
	spec      string
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewRecoveryJob creates a new job that calls Recover on the given schedule.
func NewRecoveryJob(recoverer recoverer, spec string, logger *slog.Logger) *RecoveryJob {
	return &RecoveryJob{
		recoverer: recoverer,
		spec:      spec,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "recovery_job"),
	}
}

// Run performs one sweep.
func (j *RecoveryJob) Run(ctx context.Context) dispatch.RecoveryReport {
	return j.recoverer.Recover(ctx)
}

// Start schedules the job. Overlapping runs are skipped.
func (j *RecoveryJob) Start() error {
	run := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		j.Run(context.Background())
	}))
	if _, err := j.cron.AddJob(j.spec, run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Recovery job started", "spec", j.spec)
	return nil
}

// Stop stops the recovery job.
func (j *RecoveryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Recovery job stopped")
}
