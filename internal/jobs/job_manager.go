package jobs

import (
	"fmt"
	"log/slog"
)

// Coordinator is the part of the dispatch coordinator the jobs drive.
type Coordinator interface {
	pendingScanner
	recoverer
}

// Specs are the cron schedules of the jobs, with a leading seconds field.
type Specs struct {
	PendingScan string
	Recovery    string
}

// DefaultSpecs returns the production schedules.
func DefaultSpecs() Specs {
	return Specs{
		PendingScan: DefaultPendingScanSpec,
		Recovery:    DefaultRecoverySpec,
	}
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	pendingScanJob *PendingScanJob
	recoveryJob    *RecoveryJob
}

// NewJobManager creates a new job manager with all required jobs.
// Empty specs fall back to the defaults.
func NewJobManager(coordinator Coordinator, specs Specs, logger *slog.Logger) *JobManager {
	defaults := DefaultSpecs()
	if specs.PendingScan == "" {
		specs.PendingScan = defaults.PendingScan
	}
	if specs.Recovery == "" {
		specs.Recovery = defaults.Recovery
	}

	return &JobManager{
		pendingScanJob: NewPendingScanJob(coordinator, specs.PendingScan, logger),
		recoveryJob:    NewRecoveryJob(coordinator, specs.Recovery, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.pendingScanJob.Start(); err != nil {
		return fmt.Errorf("failed to start pending scan job: %w", err)
	}

	if err := jm.recoveryJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.pendingScanJob.Stop()
		return fmt.Errorf("failed to start recovery job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully and waits for running ones.
func (jm *JobManager) StopAll() {
	jm.recoveryJob.Stop()
	jm.pendingScanJob.Stop()
}
