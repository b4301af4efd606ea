package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
)

// Migrate creates the table for model if it does not exist yet, adding the
// named constraints from t, and then creates t's indexes.
func Migrate(ctx context.Context, db bun.IDB, model any, t Table) error {
	q := db.NewCreateTable().
		Model(model).
		IfNotExists()

	for _, u := range t.Uniques {
		q = q.ColumnExpr("CONSTRAINT ? UNIQUE (?)", bun.Ident(u.Name), bun.Ident(u.Column))
	}
	for _, c := range t.Checks {
		q = q.ColumnExpr("CONSTRAINT ? CHECK (?)", bun.Ident(c.Name), bun.Safe(c.Expr))
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	for _, idx := range t.Indexes {
		_, err := db.NewCreateIndex().
			Model(model).
			Index(idx.Name).
			Column(idx.Columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, t.Name, err)
		}
	}

	slog.DebugContext(ctx, "table migrated",
		"table", t.Name,
		"constraints", len(t.Uniques)+len(t.Checks),
		"indexes", len(t.Indexes),
	)
	return nil
}
