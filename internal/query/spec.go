package query

// Spec is an immutable query specification. Every builder method returns a
// modified copy, so a Spec can be shared and extended freely.
//
//	spec := query.New().
//		Select("name", "grade").
//		OrderBy("grade", query.Desc).
//		Limit(1)
type Spec struct {
	columns []string
	where   Predicate
	orders  []Order
	limit   int
	limited bool
}

func New() Spec { return Spec{} }

// Select restricts the projection to columns. An empty projection selects
// every column of the table.
func (s Spec) Select(columns ...string) Spec {
	s.columns = append(append([]string(nil), s.columns...), columns...)
	return s
}

func (s Spec) Where(conds ...Condition) Spec {
	s.where = s.where.And(conds...)
	return s
}

// Filter replaces the predicate.
func (s Spec) Filter(p Predicate) Spec {
	s.where = append(Predicate(nil), p...)
	return s
}

func (s Spec) OrderBy(column string, dir Direction) Spec {
	s.orders = append(append([]Order(nil), s.orders...), Order{Column: column, Dir: dir})
	return s
}

// Limit truncates the result to n rows. Zero is a valid limit and yields an
// empty result; negative limits are rejected by Validate.
func (s Spec) Limit(n int) Spec {
	s.limit = n
	s.limited = true
	return s
}

func (s Spec) Columns() []string { return s.columns }

func (s Spec) Predicate() Predicate { return s.where }

func (s Spec) Orders() []Order { return s.orders }

// LimitValue reports the limit and whether one was set.
func (s Spec) LimitValue() (int, bool) { return s.limit, s.limited }
