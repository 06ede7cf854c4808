package database

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates a throwaway sqlite database for repository tests.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{
		Type:       "sqlite",
		SQLitePath: dbPath,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}
