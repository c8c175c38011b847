package test_utils

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/ratiobudget/ratiobudget/internal/database"
)

// SetupTestDB creates a SQLite database in a temporary directory and applies
// all migrations. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
