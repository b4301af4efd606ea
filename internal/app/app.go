package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"student-registry/internal/config"
	"student-registry/internal/db"
	"student-registry/internal/logger"
	"student-registry/internal/metrics"
	"student-registry/internal/query"
	"student-registry/internal/student"

	"github.com/uptrace/bun"
)

type App struct {
	config   *config.Config
	db       *bun.DB
	logger   *slog.Logger
	metrics  *metrics.Metrics
	students student.Repository
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "commit", GitCommit, "build_time", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env, "driver", cfg.Database.Driver)

	return NewWithConfig(ctx, cfg, slogLogger)
}

// NewWithConfig opens the database described by cfg, migrates it and builds
// the repositories on top of it.
func NewWithConfig(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) (*App, error) {
	appMetrics, err := metrics.New(ctx, ServiceName, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := appMetrics.RegisterDB(database.DB); err != nil {
		slogLogger.Warn("failed to register database metrics", "error", err)
	}

	migrations := []db.Migration{
		{Model: (*student.Student)(nil), Table: student.Table},
	}
	if err := db.RunMigrations(ctx, database, migrations...); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to run migrations: %w", err), db.Close(database))
	}

	app := &App{
		config:   cfg,
		db:       database,
		logger:   slogLogger,
		metrics:  appMetrics,
		students: student.NewRepository(database, appMetrics, student.WithLogger(slogLogger)),
	}

	slogLogger.Info("application initialized successfully")

	return app, nil
}

func (a *App) Students() student.Repository {
	return a.students
}

// Run walks through create, read, update and delete against the students
// table, printing each result to out.
func (a *App) Run(ctx context.Context, out io.Writer) error {
	einstein := &student.Student{
		Name:     "Albert Einstein",
		Email:    "albert.einstein@zurich.edu",
		Grade:    6,
		Birthday: date(1879, time.March, 14),
	}
	turing := &student.Student{
		Name:     "Alan Turing",
		Email:    "alan.turing@shereborne.edu",
		Grade:    11,
		Birthday: date(1912, time.June, 23),
	}

	if err := a.students.InsertBatch(ctx, []*student.Student{einstein, turing}); err != nil {
		return err
	}

	all, err := a.students.FetchAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, all)

	for _, column := range []string{student.ColumnName, student.ColumnEmail} {
		values, err := a.students.FetchColumn(ctx, column)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatValues(values))
	}

	byName, err := a.students.FetchRows(ctx, query.New().
		Select(student.ColumnName).
		OrderBy(student.ColumnName, query.Asc))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatRows(byName, student.ColumnName))

	byGrade, err := a.students.FetchRows(ctx, query.New().
		Select(student.ColumnName, student.ColumnGrade).
		OrderBy(student.ColumnGrade, query.Desc))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatRows(byGrade, student.ColumnName, student.ColumnGrade))

	top, err := a.students.FetchRows(ctx, query.New().
		Select(student.ColumnName, student.ColumnBirthday).
		OrderBy(student.ColumnGrade, query.Desc).
		Limit(1))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatRows(top, student.ColumnName, student.ColumnBirthday))

	count, err := a.students.CountAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, count)

	filtered, err := a.students.FetchFiltered(ctx, query.Where(
		query.Like(student.ColumnName, "%Alan%"),
		query.Eq(student.ColumnGrade, 11),
	))
	if err != nil {
		return err
	}
	for _, s := range filtered {
		fmt.Fprintln(out, s.Name)
	}

	if _, err := a.students.UpdateMatching(ctx, query.All(),
		query.Set(student.ColumnGrade, query.Add(student.ColumnGrade, 1)),
	); err != nil {
		return err
	}

	grades, err := a.students.FetchRows(ctx, query.New().
		Select(student.ColumnName, student.ColumnGrade).
		OrderBy(student.ColumnID, query.Asc))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatRows(grades, student.ColumnName, student.ColumnGrade))

	isEinstein := query.Where(query.Eq(student.ColumnName, "Albert Einstein"))

	first, err := a.students.FetchFirst(ctx, isEinstein)
	if err != nil {
		return err
	}
	if first != nil {
		if _, err := a.students.DeleteMatching(ctx, query.Where(query.Eq(student.ColumnID, first.ID))); err != nil {
			return err
		}
	}

	first, err = a.students.FetchFirst(ctx, isEinstein)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatStudent(first))

	return nil
}

func (a *App) Close() error {
	a.logger.Info("closing database")
	return db.Close(a.db)
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func formatStudent(s *student.Student) string {
	if s == nil {
		return "None"
	}
	return s.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.DateOnly)
	default:
		return fmt.Sprint(v)
	}
}

func formatValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, formatValue(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// formatRows renders each row as a tuple of the given columns, or as the
// bare value for a single column.
func formatRows(rows []map[string]any, columns ...string) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		fields := make([]string, 0, len(columns))
		for _, col := range columns {
			fields = append(fields, formatValue(row[col]))
		}
		if len(fields) == 1 {
			parts = append(parts, fields[0])
			continue
		}
		parts = append(parts, "("+strings.Join(fields, ", ")+")")
	}
	return "[" + strings.Join(parts, " ") + "]"
}
