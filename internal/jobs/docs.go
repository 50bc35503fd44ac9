// Package jobs provides scheduled background tasks for the dispatch service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to back up the event-driven coordinator with periodic sweeps.
//
// # Available Jobs
//
// 1. PendingScanJob - Retries pending orders whose last attempt failed without arming a timer
// 2. RecoveryJob - Times out offers nobody watches and reverts assignments that lost their offer
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager around the coordinator
//	jobManager := jobs.NewJobManager(coordinator, jobs.DefaultSpecs(), logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Specs carry a leading seconds field. The defaults are "*/15 * * * * *" for the
// pending scan and "*/30 * * * * *" for recovery.
//
// # Error Handling
//
// - The coordinator logs its own failures; jobs only report what a run achieved
// - Failed job starts will stop any already running jobs
package jobs
