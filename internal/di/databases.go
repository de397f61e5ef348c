package di

import (
	"fmt"

	"github.com/aristath/goalsip/internal/config"
	"github.com/aristath/goalsip/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens history.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	log.Info().Str("path", historyDB.Path()).Msg("History database ready")
	return &Container{HistoryDB: historyDB}, nil
}
