// Package schema describes relational tables independently of the records
// that are mapped onto them.
//
// A Table lists the columns a query may reference together with the
// constraints and indexes the store has to enforce. Records keep only their
// column mapping; everything the store validates lives here.
package schema

import "fmt"

// Type is the storage class of a column as seen by query validation.
type Type int

const (
	Integer Type = iota + 1
	Text
	Timestamp
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Text:
		return "text"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Unique is a named single-column uniqueness constraint.
type Unique struct {
	Name   string
	Column string
}

// Check is a named CHECK constraint. Expr is raw SQL and must be valid for
// every dialect the table is created on.
type Check struct {
	Name string
	Expr string
}

type Index struct {
	Name    string
	Columns []string
}

type Table struct {
	Name    string
	Alias   string
	Columns []Column
	Uniques []Unique
	Checks  []Check
	Indexes []Index
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}
