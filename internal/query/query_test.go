package query_test

import (
	"testing"
	"time"

	"student-registry/internal/query"
	"student-registry/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var people = schema.Table{
	Name: "people",
	Columns: []schema.Column{
		{Name: "id", Type: schema.Integer},
		{Name: "name", Type: schema.Text},
		{Name: "age", Type: schema.Integer},
		{Name: "born", Type: schema.Timestamp, Nullable: true},
	},
}

func TestSpec_Builder(t *testing.T) {
	base := query.New().Where(query.Like("name", "%Al%"))
	limited := base.Select("name", "age").OrderBy("age", query.Desc).Limit(1)

	t.Run("CopiesOnWrite", func(t *testing.T) {
		assert.Empty(t, base.Columns())
		assert.Empty(t, base.Orders())
		_, ok := base.LimitValue()
		assert.False(t, ok)

		other := base.Where(query.Eq("age", 3))
		assert.Len(t, base.Predicate(), 1)
		assert.Len(t, other.Predicate(), 2)
	})

	t.Run("Accessors", func(t *testing.T) {
		assert.Equal(t, []string{"name", "age"}, limited.Columns())
		assert.Equal(t, []query.Order{{Column: "age", Dir: query.Desc}}, limited.Orders())
		n, ok := limited.LimitValue()
		assert.True(t, ok)
		assert.Equal(t, 1, n)
	})

	t.Run("ZeroLimitIsSet", func(t *testing.T) {
		n, ok := query.New().Limit(0).LimitValue()
		assert.True(t, ok)
		assert.Zero(t, n)
	})

	t.Run("Filter", func(t *testing.T) {
		s := limited.Filter(query.All())
		assert.True(t, s.Predicate().IsAll())
		assert.Len(t, limited.Predicate(), 1)
	})
}

func TestPredicate_Validate(t *testing.T) {
	age := 7
	tests := []struct {
		name    string
		pred    query.Predicate
		wantErr bool
	}{
		{"All", query.All(), false},
		{"EqAndLike", query.Where(query.Like("name", "%Alan%"), query.Eq("age", 11)), false},
		{"Ranges", query.Where(query.Gt("age", 1), query.Lte("age", 12), query.Neq("id", 3)), false},
		{"UnknownColumn", query.Where(query.Eq("email", "x")), true},
		{"LikeOnInteger", query.Where(query.Like("age", "1%")), true},
		{"NilValue", query.Where(query.Eq("born", nil)), true},
		{"BadOperator", query.Where(query.Condition{Column: "age", Op: "~", Value: 1}), true},
		{"TimestampValue", query.Where(query.Lt("born", time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC))), false},
		{"UnsignedAndPointer", query.Where(query.Eq("id", uint8(3)), query.Gt("age", &age)), false},
		{"TextOnInteger", query.Where(query.Eq("age", "abc")), true},
		{"FloatOnInteger", query.Where(query.Eq("age", 11.5)), true},
		{"IntegerOnText", query.Where(query.Eq("name", 42)), true},
		{"TextOnTimestamp", query.Where(query.Gte("born", "1900-01-01")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pred.Validate(people)
			if tt.wantErr {
				assert.ErrorIs(t, err, query.ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSpec_Validate(t *testing.T) {
	require.NoError(t, query.New().Select("name").OrderBy("age", query.Asc).Limit(0).Validate(people))

	assert.ErrorIs(t, query.New().Select("nope").Validate(people), query.ErrInvalid)
	assert.ErrorIs(t, query.New().OrderBy("nope", query.Asc).Validate(people), query.ErrInvalid)
	assert.ErrorIs(t, query.New().OrderBy("age", query.Direction(7)).Validate(people), query.ErrInvalid)
	assert.ErrorIs(t, query.New().Limit(-1).Validate(people), query.ErrInvalid)
}

func TestValidateAssignments(t *testing.T) {
	t.Run("Increment", func(t *testing.T) {
		err := query.ValidateAssignments(people, "id", []query.Assignment{
			query.Set("age", query.Add("age", 1)),
		})
		assert.NoError(t, err)
	})

	t.Run("LiteralAndNull", func(t *testing.T) {
		err := query.ValidateAssignments(people, "id", []query.Assignment{
			query.Set("name", query.Value("Ada")),
			query.Set("born", query.Value(nil)),
		})
		assert.NoError(t, err)
	})

	t.Run("Rejected", func(t *testing.T) {
		cases := map[string][]query.Assignment{
			"Empty":           nil,
			"PrimaryKey":      {query.Set("id", query.Value(9))},
			"Twice":           {query.Set("age", query.Value(1)), query.Set("age", query.Value(2))},
			"Unknown":         {query.Set("email", query.Value("x"))},
			"UnknownRef":      {query.Set("age", query.Add("height", 1))},
			"TextArithmetic":  {query.Set("name", query.Add("name", 1))},
			"NullNotNullable": {query.Set("age", query.Value(nil))},
			"TextIntoInteger": {query.Set("age", query.Value("eleven"))},
			"IntegerIntoText": {query.Set("name", query.Value(7))},
		}
		for name, as := range cases {
			t.Run(name, func(t *testing.T) {
				assert.ErrorIs(t, query.ValidateAssignments(people, "id", as), query.ErrInvalid)
			})
		}
	})

	t.Run("ExprAccessors", func(t *testing.T) {
		col, delta, ok := query.Add("age", -2).Ref()
		assert.True(t, ok)
		assert.Equal(t, "age", col)
		assert.Equal(t, -2, delta)

		_, _, ok = query.Value(3).Ref()
		assert.False(t, ok)
		assert.Equal(t, 3, query.Value(3).Literal())
	})
}
