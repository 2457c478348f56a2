package testsupport

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// SQLiteMemoryDSN returns a DSN for a shared-cache in-memory sqlite database
// private to the caller.
func SQLiteMemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
}

// NewSQLiteDB opens a private in-memory sqlite database wrapped in bun. The
// database is closed when the test ends.
func NewSQLiteDB(t testing.TB) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", SQLiteMemoryDSN())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqldb.Close()
	})
	return bun.NewDB(sqldb, sqlitedialect.New())
}
