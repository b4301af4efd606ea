package query

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"student-registry/internal/schema"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid query")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func lookup(t schema.Table, name string) (schema.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return schema.Column{}, invalid("unknown column %q on table %s", name, t.Name)
	}
	return col, nil
}

// checkValue rejects values the column's type cannot hold. SQLite would
// accept them and compare by storage class, silently matching nothing.
func checkValue(col schema.Column, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	ok := false
	switch col.Type {
	case schema.Integer:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			ok = true
		}
	case schema.Text:
		ok = rv.Kind() == reflect.String
	case schema.Timestamp:
		_, ok = rv.Interface().(time.Time)
	}
	if !ok {
		return invalid("%T value for %s column %q", v, col.Type, col.Name)
	}
	return nil
}

// Validate checks every condition against t.
func (p Predicate) Validate(t schema.Table) error {
	for _, c := range p {
		col, err := lookup(t, c.Column)
		if err != nil {
			return err
		}
		switch c.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		case OpLike:
			if col.Type != schema.Text {
				return invalid("LIKE on %s column %q", col.Type, col.Name)
			}
			if _, ok := c.Value.(string); !ok {
				return invalid("LIKE pattern for %q must be a string", col.Name)
			}
		default:
			return invalid("unsupported operator %q", c.Op)
		}
		if c.Value == nil {
			return invalid("nil value for %q, comparisons with NULL never match", col.Name)
		}
		if err := checkValue(col, c.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s Spec) Validate(t schema.Table) error {
	for _, name := range s.columns {
		if _, err := lookup(t, name); err != nil {
			return err
		}
	}
	if err := s.where.Validate(t); err != nil {
		return err
	}
	for _, o := range s.orders {
		if _, err := lookup(t, o.Column); err != nil {
			return err
		}
		if o.Dir != Asc && o.Dir != Desc {
			return invalid("unknown direction %d for %q", int(o.Dir), o.Column)
		}
	}
	if s.limited && s.limit < 0 {
		return invalid("negative limit %d", s.limit)
	}
	return nil
}

// ValidateAssignments checks an update's assignments against t. The primary
// key column pk may not be assigned.
func ValidateAssignments(t schema.Table, pk string, as []Assignment) error {
	if len(as) == 0 {
		return invalid("update without assignments")
	}
	seen := make(map[string]bool, len(as))
	for _, a := range as {
		col, err := lookup(t, a.Column)
		if err != nil {
			return err
		}
		if col.Name == pk {
			return invalid("column %q is immutable", pk)
		}
		if seen[col.Name] {
			return invalid("column %q assigned twice", col.Name)
		}
		seen[col.Name] = true

		ref, _, ok := a.Expr.Ref()
		if !ok {
			lit := a.Expr.Literal()
			if lit == nil {
				if !col.Nullable {
					return invalid("column %q is not nullable", col.Name)
				}
				continue
			}
			if err := checkValue(col, lit); err != nil {
				return err
			}
			continue
		}
		refCol, err := lookup(t, ref)
		if err != nil {
			return err
		}
		if refCol.Type != schema.Integer || col.Type != schema.Integer {
			return invalid("arithmetic on non-integer column %q", refCol.Name)
		}
	}
	return nil
}
