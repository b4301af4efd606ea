// Package sqlerr classifies database driver errors.
//
// Drivers report integrity failures in their own vocabulary: SQLite uses
// extended result codes, Postgres uses SQLSTATE class 23. Convert maps both
// onto a small set of codes so callers can test for a constraint violation
// with errors.Is, independently of the store behind the handle.
package sqlerr

import (
	"errors"
	"fmt"
)

// ErrConstraintViolation matches every *Error whose Code is a constraint
// violation.
var ErrConstraintViolation = errors.New("constraint violation")

type Code int

const (
	Other Code = iota
	UniqueViolation
	CheckViolation
	NotNullViolation
	ForeignKeyViolation
)

func (c Code) String() string {
	switch c {
	case UniqueViolation:
		return "unique_violation"
	case CheckViolation:
		return "check_violation"
	case NotNullViolation:
		return "not_null_violation"
	case ForeignKeyViolation:
		return "foreign_key_violation"
	default:
		return "other"
	}
}

// IsConstraint reports whether c denotes an integrity constraint failure.
func (c Code) IsConstraint() bool {
	return c != Other
}

// Error is a classified driver error.
type Error struct {
	Code Code
	// Constraint is the constraint name, or the failing table.column when
	// the driver only reports that.
	Constraint string
	Message    string

	driverErr error
}

func (e *Error) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Constraint, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.driverErr }

func (e *Error) Is(target error) bool {
	return target == ErrConstraintViolation && e.Code.IsConstraint()
}

// CodeOf reports the Code of err, converting it first if needed.
func CodeOf(err error) Code {
	var sqlErr *Error
	if errors.As(Convert(err), &sqlErr) {
		return sqlErr.Code
	}
	return Other
}
