package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// CleanupTables empties tables between subtests. On Postgres the identity
// sequences restart as well.
func CleanupTables(t *testing.T, database *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	for _, table := range tables {
		var err error
		switch database.Dialect().Name() {
		case dialect.PG:
			_, err = database.ExecContext(ctx, "TRUNCATE ? RESTART IDENTITY CASCADE", bun.Ident(table))
		default:
			_, err = database.ExecContext(ctx, "DELETE FROM ?", bun.Ident(table))
		}
		require.NoError(t, err, "failed to clean table: %s", table)
	}
}
