package testdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"student-registry/internal/config"
	"student-registry/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var memoryDBs atomic.Int64

// NewSQLite opens a fresh in-memory SQLite database that no other test can
// see. It is closed when the test ends. Safe for parallel tests.
//
// Usage:
//
//	func TestMyRepo(t *testing.T) {
//	    database := testdb.NewSQLite(t)
//	    testdb.RunMigrations(t, database, db.Migration{Model: (*MyModel)(nil), Table: MyTable})
//	}
func NewSQLite(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", memoryDBs.Add(1))
	database, err := db.Open(context.Background(), config.DriverSQLite, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("failed to close sqlite: %s", err)
		}
	})
	return database
}

func RunMigrations(t *testing.T, database bun.IDB, migrations ...db.Migration) {
	t.Helper()
	err := db.RunMigrations(context.Background(), database, migrations...)
	require.NoError(t, err, "failed to run migrations")
}
