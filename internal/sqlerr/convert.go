package sqlerr

import (
	"errors"
	"strings"

	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Convert returns err classified as *Error when it is an integrity failure
// of a known driver. Any other error, including nil, is returned unchanged.
func Convert(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if c := convertSQLite(liteErr); c != nil {
			return c
		}
		return err
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if c := convertPostgres(pgErr); c != nil {
			return c
		}
		return err
	}

	code, constraint := parseMessage(err.Error())
	if code == Other {
		return err
	}
	return &Error{Code: code, Constraint: constraint, Message: err.Error(), driverErr: err}
}

func convertSQLite(src *sqlite.Error) *Error {
	if src.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}

	var code Code
	switch src.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		code = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		code = CheckViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		code = NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		code = ForeignKeyViolation
	}

	// Without extended result codes only the message tells them apart.
	msgCode, constraint := parseMessage(src.Error())
	if code == Other {
		code = msgCode
	}
	if code == Other {
		code = CheckViolation
	}

	return &Error{Code: code, Constraint: constraint, Message: src.Error(), driverErr: src}
}

// SQLSTATE class 23, integrity constraint violation.
var pgCodes = map[string]Code{
	"23505": UniqueViolation,
	"23514": CheckViolation,
	"23502": NotNullViolation,
	"23503": ForeignKeyViolation,
}

func convertPostgres(src pgdriver.Error) *Error {
	if !src.IntegrityViolation() {
		return nil
	}
	code, ok := pgCodes[src.Field('C')]
	if !ok {
		code = CheckViolation
	}
	return &Error{
		Code:       code,
		Constraint: src.Field('n'),
		Message:    src.Field('M'),
		driverErr:  src,
	}
}

var messagePrefixes = []struct {
	prefix string
	code   Code
}{
	{"UNIQUE constraint failed", UniqueViolation},
	{"CHECK constraint failed", CheckViolation},
	{"NOT NULL constraint failed", NotNullViolation},
	{"FOREIGN KEY constraint failed", ForeignKeyViolation},
}

// parseMessage recognizes SQLite's constraint messages, e.g.
// "UNIQUE constraint failed: students.email".
func parseMessage(msg string) (Code, string) {
	for _, p := range messagePrefixes {
		i := strings.Index(msg, p.prefix)
		if i < 0 {
			continue
		}
		rest := strings.TrimPrefix(msg[i+len(p.prefix):], ":")
		rest = strings.TrimSpace(rest)
		if j := strings.IndexAny(rest, " ("); j >= 0 {
			rest = rest[:j]
		}
		return p.code, rest
	}
	return Other, ""
}
