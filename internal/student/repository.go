package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"student-registry/internal/metrics"
	"student-registry/internal/query"
	"student-registry/internal/sqlerr"

	"github.com/uptrace/bun"
)

var (
	// ErrConstraintViolation is returned when a write would break the
	// uniqueness of email or the grade range. Nothing is written.
	ErrConstraintViolation = sqlerr.ErrConstraintViolation
	ErrInvalidInput        = errors.New("invalid input")
)

type Repository interface {
	InsertBatch(ctx context.Context, students []*Student) error
	FetchAll(ctx context.Context) ([]Student, error)
	FetchColumn(ctx context.Context, column string) ([]any, error)
	FetchOrdered(ctx context.Context, spec query.Spec) ([]Student, error)
	FetchRows(ctx context.Context, spec query.Spec) ([]map[string]any, error)
	FetchLimited(ctx context.Context, column string, dir query.Direction, limit int) ([]Student, error)
	CountAll(ctx context.Context) (int, error)
	FetchFiltered(ctx context.Context, p query.Predicate) ([]Student, error)
	FetchFirst(ctx context.Context, p query.Predicate) (*Student, error)
	UpdateMatching(ctx context.Context, p query.Predicate, assignments ...query.Assignment) (int64, error)
	DeleteMatching(ctx context.Context, p query.Predicate) (int64, error)
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*repository)

// WithClock sets the source of default enrollment dates.
func WithClock(now func() time.Time) Option {
	return func(r *repository) { r.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *repository) { r.logger = logger }
}

func NewRepository(db bun.IDB, m *metrics.Metrics, opts ...Option) Repository {
	if m == nil {
		m = metrics.NewMock()
	}
	r := &repository{
		db:      db,
		metrics: m,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// where is satisfied by bun's select, update and delete queries.
type where[Q any] interface {
	Where(query string, args ...any) Q
}

func applyPredicate[Q where[Q]](q Q, p query.Predicate) Q {
	for _, c := range p {
		q = q.Where("? "+string(c.Op)+" ?", bun.Ident(c.Column), c.Value)
	}
	return q
}

// applyAll makes an empty predicate explicit. bun refuses UPDATE and DELETE
// without a WHERE clause.
func applyAll[Q where[Q]](q Q, p query.Predicate) Q {
	if p.IsAll() {
		return q.Where("1 = 1")
	}
	return applyPredicate(q, p)
}

func applySpec(q *bun.SelectQuery, spec query.Spec) *bun.SelectQuery {
	for _, col := range spec.Columns() {
		q = q.Column(col)
	}
	q = applyPredicate(q, spec.Predicate())
	for _, o := range spec.Orders() {
		q = q.OrderExpr("? "+o.Dir.String(), bun.Ident(o.Column))
	}
	// bun treats Limit(0) as no limit; callers short-circuit zero.
	if n, ok := spec.LimitValue(); ok && n > 0 {
		q = q.Limit(n)
	}
	return q
}

func (r *repository) record(ctx context.Context, op string, start time.Time, err error) {
	r.metrics.Database.RecordQuery(ctx, op, Table.Name, time.Since(start), err)
}

func (r *repository) InsertBatch(ctx context.Context, students []*Student) error {
	if len(students) == 0 {
		return nil
	}

	for i, s := range students {
		if s == nil {
			return invalid(fmt.Errorf("student %d is nil", i))
		}
		if s.ID != 0 {
			return invalid(fmt.Errorf("student %d already has id %d", i, s.ID))
		}
	}

	now := r.now()
	defaulted := make([]bool, len(students))
	for i, s := range students {
		if s.EnrolledDate.IsZero() {
			s.EnrolledDate = now
			defaulted[i] = true
		}
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&students).Returning("*").Exec(ctx)
		return err
	})
	err = sqlerr.Convert(err)

	r.record(ctx, "insert", start, err)

	if err != nil {
		for i, s := range students {
			s.ID = 0
			if defaulted[i] {
				s.EnrolledDate = time.Time{}
			}
		}
		return fmt.Errorf("insert students: %w", err)
	}

	r.metrics.Database.RecordRowsAffected(ctx, "insert", Table.Name, int64(len(students)))
	r.logger.DebugContext(ctx, "students inserted", "count", len(students))
	return nil
}

func (r *repository) FetchAll(ctx context.Context) ([]Student, error) {
	return r.FetchOrdered(ctx, query.New().OrderBy(ColumnID, query.Asc))
}

func (r *repository) FetchColumn(ctx context.Context, column string) ([]any, error) {
	rows, err := r.FetchRows(ctx, query.New().Select(column).OrderBy(ColumnID, query.Asc))
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[column])
	}
	return values, nil
}

// FetchOrdered materializes full records. A projection in spec leaves the
// other fields at their zero value.
func (r *repository) FetchOrdered(ctx context.Context, spec query.Spec) ([]Student, error) {
	if err := spec.Validate(Table); err != nil {
		return nil, invalid(err)
	}

	students := make([]Student, 0)
	if n, ok := spec.LimitValue(); ok && n == 0 {
		return students, nil
	}

	start := time.Now()
	err := applySpec(r.db.NewSelect().Model(&students), spec).Scan(ctx)

	r.record(ctx, "select", start, err)

	if err != nil {
		return nil, fmt.Errorf("select students: %w", err)
	}
	r.logger.DebugContext(ctx, "students fetched", "count", len(students))
	return students, nil
}

// FetchRows returns the projected columns of spec, or every column when the
// projection is empty, keyed by column name.
func (r *repository) FetchRows(ctx context.Context, spec query.Spec) ([]map[string]any, error) {
	if len(spec.Columns()) == 0 {
		spec = spec.Select(Table.ColumnNames()...)
	}
	if err := spec.Validate(Table); err != nil {
		return nil, invalid(err)
	}

	rows := make([]map[string]any, 0)
	if n, ok := spec.LimitValue(); ok && n == 0 {
		return rows, nil
	}

	start := time.Now()
	err := applySpec(r.db.NewSelect().Table(Table.Name), spec).Scan(ctx, &rows)

	r.record(ctx, "select", start, err)

	if err != nil {
		return nil, fmt.Errorf("select student rows: %w", err)
	}
	return rows, nil
}

func (r *repository) FetchLimited(ctx context.Context, column string, dir query.Direction, limit int) ([]Student, error) {
	return r.FetchOrdered(ctx, query.New().OrderBy(column, dir).Limit(limit))
}

func (r *repository) CountAll(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().Model((*Student)(nil)).Count(ctx)

	r.record(ctx, "count", start, err)

	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

func (r *repository) FetchFiltered(ctx context.Context, p query.Predicate) ([]Student, error) {
	return r.FetchOrdered(ctx, query.New().Filter(p).OrderBy(ColumnID, query.Asc))
}

// FetchFirst returns the matching student with the lowest id, or nil when
// nothing matches.
func (r *repository) FetchFirst(ctx context.Context, p query.Predicate) (*Student, error) {
	students, err := r.FetchOrdered(ctx, query.New().Filter(p).OrderBy(ColumnID, query.Asc).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, nil
	}
	return &students[0], nil
}

// UpdateMatching applies assignments to every row matching p in a single
// statement and reports how many rows changed.
func (r *repository) UpdateMatching(ctx context.Context, p query.Predicate, assignments ...query.Assignment) (int64, error) {
	if err := p.Validate(Table); err != nil {
		return 0, invalid(err)
	}
	if err := query.ValidateAssignments(Table, ColumnID, assignments); err != nil {
		return 0, invalid(err)
	}

	start := time.Now()
	var affected int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().Table(Table.Name)
		for _, a := range assignments {
			if ref, delta, ok := a.Expr.Ref(); ok {
				q = q.Set("? = ? + ?", bun.Ident(a.Column), bun.Ident(ref), delta)
				continue
			}
			q = q.Set("? = ?", bun.Ident(a.Column), a.Expr.Literal())
		}

		res, err := applyAll(q, p).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	err = sqlerr.Convert(err)

	r.record(ctx, "update", start, err)

	if err != nil {
		return 0, fmt.Errorf("update students: %w", err)
	}

	r.metrics.Database.RecordRowsAffected(ctx, "update", Table.Name, affected)
	r.logger.DebugContext(ctx, "students updated", "rows", affected)
	return affected, nil
}

// DeleteMatching removes every row matching p. Matching nothing is not an
// error.
func (r *repository) DeleteMatching(ctx context.Context, p query.Predicate) (int64, error) {
	if err := p.Validate(Table); err != nil {
		return 0, invalid(err)
	}

	start := time.Now()
	var affected int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := applyAll(tx.NewDelete().Table(Table.Name), p).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	err = sqlerr.Convert(err)

	r.record(ctx, "delete", start, err)

	if err != nil {
		return 0, fmt.Errorf("delete students: %w", err)
	}

	r.metrics.Database.RecordRowsAffected(ctx, "delete", Table.Name, affected)
	r.logger.DebugContext(ctx, "students deleted", "rows", affected)
	return affected, nil
}
