package di

import (
	"github.com/aristath/goalsip/internal/database"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/internal/modules/currency"
	"github.com/aristath/goalsip/internal/modules/history"
	"github.com/aristath/goalsip/internal/modules/planning"
	"github.com/aristath/goalsip/internal/reliability"
	"github.com/aristath/goalsip/internal/scheduler"
	"github.com/aristath/goalsip/internal/workers"
)

// Container holds every long-lived dependency of the server.
// It is the single source of truth handed to the HTTP layer.
type Container struct {
	HistoryDB *database.DB

	// Repositories
	HistoryRepo *history.Repository

	// Services
	Importer        *history.Importer
	Normalizer      *currency.Normalizer
	Loader          *history.Loader
	ProfileTable    *allocation.Table
	WorkerPool      *workers.WorkerPool
	PlanningService *planning.Service
	BackupService   *reliability.BackupService // nil when backups are disabled

	Scheduler *scheduler.Scheduler
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.HistoryDB == nil {
		return nil
	}
	return c.HistoryDB.Close()
}
