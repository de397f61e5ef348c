package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/goalsip/internal/modules/history"
	"github.com/rs/zerolog"
)

// DirectoryImporter imports every recognized file in a directory
type DirectoryImporter interface {
	ImportDirectory(ctx context.Context, dir string) (history.DirectoryResult, error)
}

// ImportJob scans the import directory for NAV and FX CSV drops
type ImportJob struct {
	importer DirectoryImporter
	dir      string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewImportJob creates a new ImportJob
func NewImportJob(importer DirectoryImporter, dir string, log zerolog.Logger) *ImportJob {
	return &ImportJob{
		importer: importer,
		dir:      dir,
		timeout:  10 * time.Minute,
		log:      log.With().Str("job", "import_history").Logger(),
	}
}

// Name returns the job name
func (j *ImportJob) Name() string {
	return "import_history"
}

// Run executes the import job. Files that fail stay in place and are
// reported as an error after the rest of the directory is imported.
func (j *ImportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.importer.ImportDirectory(ctx, j.dir)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", j.dir, err)
	}

	if len(result.Skipped) > 0 {
		j.log.Debug().Strs("files", result.Skipped).Msg("Skipped unrecognized files")
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed to import: %v", len(result.Failed), result.Failed)
	}
	return nil
}
