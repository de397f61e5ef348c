package scheduler

import (
	"context"
	"time"

	"github.com/aristath/goalsip/internal/reliability"
	"github.com/rs/zerolog"
)

// Backuper uploads one snapshot of the history store
type Backuper interface {
	Backup(ctx context.Context) (reliability.BackupInfo, error)
}

// BackupJob uploads a history snapshot on schedule
type BackupJob struct {
	backup  Backuper
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(backup Backuper, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup:  backup,
		timeout: 30 * time.Minute,
		log:     log.With().Str("job", "backup_history").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup_history"
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	info, err := j.backup.Backup(ctx)
	if err != nil {
		return err
	}
	j.log.Debug().Str("key", info.Key).Msg("Snapshot stored")
	return nil
}
