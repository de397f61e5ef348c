package di

import (
	"context"
	"fmt"

	"github.com/aristath/goalsip/internal/config"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/internal/modules/currency"
	"github.com/aristath/goalsip/internal/modules/history"
	"github.com/aristath/goalsip/internal/modules/planning"
	"github.com/aristath/goalsip/internal/reliability"
	"github.com/aristath/goalsip/internal/workers"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on top of the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.HistoryRepo = history.NewRepository(container.HistoryDB.Conn(), log)
}

// InitializeServices creates the services. Order matters: the loader needs the
// normalizer and the planning service needs the loader.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	table, err := allocation.LoadTable(cfg.ProfilesFile)
	if err != nil {
		return fmt.Errorf("failed to load risk profiles: %w", err)
	}
	container.ProfileTable = table

	container.Importer = history.NewImporter(container.HistoryRepo, log)
	container.Normalizer = currency.NewNormalizer(cfg.BaseCurrency, container.HistoryRepo, log)
	container.Loader = history.NewLoader(container.HistoryRepo, container.Normalizer, log)
	container.WorkerPool = workers.NewWorkerPool(cfg.Simulation.Workers)

	container.PlanningService = planning.NewService(
		table,
		container.Loader,
		container.WorkerPool,
		planning.Settings{
			Mode:              cfg.Mode(),
			NumSimulations:    cfg.Simulation.NumSimulations,
			TargetProbability: cfg.Simulation.TargetProbability,
			Seed:              cfg.Simulation.Seed,
		},
		log,
	)

	if cfg.Backup.Enabled {
		uploader, err := reliability.NewS3Uploader(ctx, reliability.S3Config{
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup uploader: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			container.HistoryDB, uploader, cfg.Backup.Bucket, cfg.DataDir, log,
		)
	}

	log.Info().
		Strs("profiles", table.Names()).
		Int("workers", container.WorkerPool.Size()).
		Bool("backups", container.BackupService != nil).
		Msg("Services initialized")
	return nil
}
