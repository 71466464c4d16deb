// Package dbtest provides a migrated SQLite database for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"storefront/internal/database"
)

// NewSQLite opens a fresh file-backed SQLite database with the schema applied. It is
// closed when the test ends.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		filepath.Join(t.TempDir(), "store.db"))

	db, err := database.OpenSQL(database.SQLDriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
