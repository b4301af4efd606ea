// Package query holds query specifications as plain values: a conjunctive
// predicate, an ordering, an optional limit, an optional projection and the
// assignments of a set-based update.
//
// Nothing here talks to a database. Repositories translate a Spec into
// whatever query builder they use, after validating it against a
// schema.Table.
package query

import "fmt"

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNeq  Op = "!="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpLike Op = "LIKE"
)

// Condition compares a column with a value.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

func Neq(column string, value any) Condition {
	return Condition{Column: column, Op: OpNeq, Value: value}
}

func Gt(column string, value any) Condition {
	return Condition{Column: column, Op: OpGt, Value: value}
}

func Gte(column string, value any) Condition {
	return Condition{Column: column, Op: OpGte, Value: value}
}

func Lt(column string, value any) Condition {
	return Condition{Column: column, Op: OpLt, Value: value}
}

func Lte(column string, value any) Condition {
	return Condition{Column: column, Op: OpLte, Value: value}
}

// Like matches a text column against an SQL pattern, e.g. "%Alan%".
func Like(column string, pattern string) Condition {
	return Condition{Column: column, Op: OpLike, Value: pattern}
}

// Predicate is a conjunction of conditions. The empty predicate matches
// every row.
type Predicate []Condition

// All matches every row.
func All() Predicate { return nil }

func Where(conds ...Condition) Predicate {
	return Predicate(conds)
}

// And returns a new predicate with conds appended.
func (p Predicate) And(conds ...Condition) Predicate {
	out := make(Predicate, 0, len(p)+len(conds))
	out = append(out, p...)
	return append(out, conds...)
}

func (p Predicate) IsAll() bool { return len(p) == 0 }

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

type Order struct {
	Column string
	Dir    Direction
}
