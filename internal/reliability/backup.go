// Package reliability keeps the history store recoverable: off-site snapshots and routine maintenance.
package reliability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupPrefix is the object key prefix for history snapshots
const BackupPrefix = "history/"

// Snapshotter writes a consistent copy of a database to a new file
type Snapshotter interface {
	SnapshotTo(ctx context.Context, dest string) error
	Name() string
}

// Uploader stores one object in a bucket
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, metadata map[string]string) error
}

// BackupInfo describes an uploaded snapshot
type BackupInfo struct {
	Key       string    `json:"key"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// BackupService snapshots the history database and uploads it to object storage
type BackupService struct {
	db         Snapshotter
	uploader   Uploader
	bucket     string
	stagingDir string
	now        func() time.Time
	log        zerolog.Logger
}

// NewBackupService creates a backup service that stages snapshots under dataDir
func NewBackupService(db Snapshotter, uploader Uploader, bucket, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:         db,
		uploader:   uploader,
		bucket:     bucket,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		now:        time.Now,
		log:        log.With().Str("service", "backup").Logger(),
	}
}

// Backup snapshots the database and uploads it as history/<name>-<timestamp>.db
func (s *BackupService) Backup(ctx context.Context) (BackupInfo, error) {
	startTime := s.now()
	s.log.Info().Str("database", s.db.Name()).Msg("Starting backup")

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	staging, err := os.MkdirTemp(s.stagingDir, "snapshot-")
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	filename := fmt.Sprintf("%s-%s.db", s.db.Name(), startTime.UTC().Format("2006-01-02-150405"))
	snapshotPath := filepath.Join(staging, filename)
	if err := s.db.SnapshotTo(ctx, snapshotPath); err != nil {
		return BackupInfo{}, err
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := calculateChecksum(snapshotPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	f, err := os.Open(snapshotPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	backup := BackupInfo{
		Key:       BackupPrefix + filename,
		SizeBytes: info.Size(),
		Checksum:  checksum,
		Timestamp: startTime.UTC(),
	}
	metadata := map[string]string{
		"sha256":   checksum,
		"database": s.db.Name(),
	}
	if err := s.uploader.Upload(ctx, s.bucket, backup.Key, f, metadata); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to upload %s: %w", backup.Key, err)
	}

	s.log.Info().
		Str("key", backup.Key).
		Int64("size_bytes", backup.SizeBytes).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Backup uploaded")
	return backup, nil
}

func calculateChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
