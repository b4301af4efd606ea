package query

// Expr is the right-hand side of an update assignment: either a literal
// value or a column of the same row plus a delta.
type Expr struct {
	value any
	ref   string
	delta int
}

// Value is a literal assignment.
func Value(v any) Expr {
	return Expr{value: v}
}

// Add references the current value of column, e.g. Add("grade", 1) is
// grade + 1. Negative deltas subtract.
func Add(column string, delta int) Expr {
	return Expr{ref: column, delta: delta}
}

// Ref reports the referenced column and delta for arithmetic expressions.
func (e Expr) Ref() (column string, delta int, ok bool) {
	return e.ref, e.delta, e.ref != ""
}

func (e Expr) Literal() any { return e.value }

type Assignment struct {
	Column string
	Expr   Expr
}

func Set(column string, expr Expr) Assignment {
	return Assignment{Column: column, Expr: expr}
}
