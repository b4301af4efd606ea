//go:build integration

package student_test

import (
	"context"
	"testing"

	"student-registry/internal/db"
	"student-registry/internal/metrics"
	"student-registry/internal/query"
	"student-registry/internal/sqlerr"
	"student-registry/internal/student"
	"student-registry/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Postgres(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, db.Migration{Model: (*student.Student)(nil), Table: student.Table})

	repo := student.NewRepository(pgContainer.DB, metrics.NewMock())
	ctx := context.Background()

	t.Run("Scenario", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "students")

		require.NoError(t, repo.InsertBatch(ctx, []*student.Student{einstein(), turing()}))

		count, err := repo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		alan, err := repo.FetchFiltered(ctx, query.Where(
			query.Like(student.ColumnName, "%Alan%"),
			query.Eq(student.ColumnGrade, 11),
		))
		require.NoError(t, err)
		assert.Equal(t, []string{"Alan Turing"}, names(alan))

		byName := query.Where(query.Eq(student.ColumnName, "Albert Einstein"))
		_, err = repo.DeleteMatching(ctx, byName)
		require.NoError(t, err)

		gone, err := repo.FetchFirst(ctx, byName)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "students")
		require.NoError(t, repo.InsertBatch(ctx, []*student.Student{einstein()}))

		dup := turing()
		dup.Email = "albert.einstein@zurich.edu"
		err := repo.InsertBatch(ctx, []*student.Student{dup})
		assert.ErrorIs(t, err, student.ErrConstraintViolation)
		assert.Equal(t, sqlerr.UniqueViolation, sqlerr.CodeOf(err))

		var sqlErr *sqlerr.Error
		require.ErrorAs(t, err, &sqlErr)
		assert.Equal(t, "unique_email", sqlErr.Constraint)
	})

	t.Run("InsertAfterDeleteNeverReusesID", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "students")

		a, b := einstein(), turing()
		require.NoError(t, repo.InsertBatch(ctx, []*student.Student{a, b}))

		_, err := repo.DeleteMatching(ctx, query.Where(query.Eq(student.ColumnID, b.ID)))
		require.NoError(t, err)

		c := &student.Student{Name: "Emmy Noether", Email: "emmy@goettingen.de", Grade: 9}
		require.NoError(t, repo.InsertBatch(ctx, []*student.Student{c}))
		assert.NotEqual(t, b.ID, c.ID)
		assert.Greater(t, c.ID, b.ID)
	})

	t.Run("IncrementPastMax", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "students")
		top := turing()
		top.Grade = 12
		require.NoError(t, repo.InsertBatch(ctx, []*student.Student{einstein(), top}))

		_, err := repo.UpdateMatching(ctx, query.All(), query.Set(student.ColumnGrade, query.Add(student.ColumnGrade, 1)))
		assert.ErrorIs(t, err, student.ErrConstraintViolation)
		assert.Equal(t, sqlerr.CheckViolation, sqlerr.CodeOf(err))
		assert.Equal(t, map[string]int{"Albert Einstein": 6, "Alan Turing": 12}, grades(t, repo))
	})
}
