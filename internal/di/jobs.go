package di

import (
	"fmt"

	"github.com/aristath/goalsip/internal/config"
	"github.com/aristath/goalsip/internal/reliability"
	"github.com/aristath/goalsip/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)

	if cfg.ImportSchedule != "" {
		job := scheduler.NewImportJob(container.Importer, cfg.ImportDir, log)
		if err := sched.AddJob(cfg.ImportSchedule, job); err != nil {
			return fmt.Errorf("failed to register import job: %w", err)
		}
	}

	if cfg.MaintenanceSchedule != "" {
		job := reliability.NewMaintenanceJob(container.HistoryDB, cfg.DataDir, log)
		if err := sched.AddJob(cfg.MaintenanceSchedule, job); err != nil {
			return fmt.Errorf("failed to register maintenance job: %w", err)
		}
	}

	if container.BackupService != nil {
		job := scheduler.NewBackupJob(container.BackupService, log)
		if err := sched.AddJob(cfg.Backup.Schedule, job); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	container.Scheduler = sched
	return nil
}
