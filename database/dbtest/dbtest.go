// Package dbtest opens a migrated SQLite database for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/akinalp/connectplus/database"
)

// Open creates a fresh database file under t.TempDir, applies every
// migration and closes it when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db.Conn
}
