// Package testing provides testing utilities and helpers for the goalsip project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/goalsip/internal/database"
)

// NewTestDB creates a temporary SQLite database with the embedded schema for name applied.
// Returns the database instance and a cleanup function that closes the connection.
// The file lives in t.TempDir(), so it is removed when the test ends.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}
