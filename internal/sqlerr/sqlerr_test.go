package sqlerr_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"student-registry/internal/sqlerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE things (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		size INTEGER NOT NULL,
		CONSTRAINT unique_label UNIQUE (label),
		CONSTRAINT size_positive CHECK (size > 0)
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO things (label, size) VALUES ('a', 1)`)
	require.NoError(t, err)
	return db
}

func TestConvert_SQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		stmt       string
		code       sqlerr.Code
		constraint string
	}{
		{"Unique", `INSERT INTO things (label, size) VALUES ('a', 2)`, sqlerr.UniqueViolation, "things.label"},
		{"Check", `INSERT INTO things (label, size) VALUES ('b', 0)`, sqlerr.CheckViolation, "size_positive"},
		{"NotNull", `INSERT INTO things (label, size) VALUES (NULL, 2)`, sqlerr.NotNullViolation, "things.label"},
		{"CheckOnUpdate", `UPDATE things SET size = size - 1`, sqlerr.CheckViolation, "size_positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.stmt)
			require.Error(t, err)

			converted := sqlerr.Convert(err)
			assert.ErrorIs(t, converted, sqlerr.ErrConstraintViolation)

			var sqlErr *sqlerr.Error
			require.ErrorAs(t, converted, &sqlErr)
			assert.Equal(t, tt.code, sqlErr.Code)
			assert.Equal(t, tt.constraint, sqlErr.Constraint)
			assert.Equal(t, tt.code, sqlerr.CodeOf(err))
		})
	}

	t.Run("SyntaxErrorPassesThrough", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO nowhere VALUES (1)`)
		require.Error(t, err)
		assert.Same(t, err, sqlerr.Convert(err))
		assert.Equal(t, sqlerr.Other, sqlerr.CodeOf(err))
	})
}

func TestConvert_Message(t *testing.T) {
	assert.NoError(t, sqlerr.Convert(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, sqlerr.Convert(plain))
	assert.NotErrorIs(t, sqlerr.Convert(plain), sqlerr.ErrConstraintViolation)

	wrapped := fmt.Errorf("insert: %w", errors.New("CHECK constraint failed: grade_between_1_and_12"))
	converted := sqlerr.Convert(wrapped)
	assert.ErrorIs(t, converted, sqlerr.ErrConstraintViolation)
	assert.ErrorIs(t, converted, wrapped)

	var sqlErr *sqlerr.Error
	require.ErrorAs(t, converted, &sqlErr)
	assert.Equal(t, sqlerr.CheckViolation, sqlErr.Code)
	assert.Equal(t, "grade_between_1_and_12", sqlErr.Constraint)

	// Already classified errors are not wrapped twice.
	assert.Same(t, converted, sqlerr.Convert(converted))
}

func TestError_Format(t *testing.T) {
	err := &sqlerr.Error{Code: sqlerr.UniqueViolation, Constraint: "unique_email", Message: "duplicate key"}
	assert.Equal(t, "unique_violation (unique_email): duplicate key", err.Error())

	other := &sqlerr.Error{Code: sqlerr.Other, Message: "boom"}
	assert.Equal(t, "other: boom", other.Error())
	assert.NotErrorIs(t, other, sqlerr.ErrConstraintViolation)
}
