package student

import (
	"fmt"
	"time"

	"student-registry/internal/schema"

	"github.com/uptrace/bun"
)

// Student is one row of the students table. Constraints and indexes are
// declared on Table, not here.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Name         string     `bun:"name" json:"name"`
	Email        string     `bun:"email,type:varchar(55)" json:"email"`
	Grade        int        `bun:"grade,notnull" json:"grade"`
	Birthday     *time.Time `bun:"birthday" json:"birthday,omitempty"`
	EnrolledDate time.Time  `bun:"enrolled_date,notnull,default:current_timestamp" json:"enrolledDate"`
}

func (s Student) String() string {
	return fmt.Sprintf("Student %d: %s, Grade %d", s.ID, s.Name, s.Grade)
}

// Column names of the students table.
const (
	ColumnID           = "id"
	ColumnName         = "name"
	ColumnEmail        = "email"
	ColumnGrade        = "grade"
	ColumnBirthday     = "birthday"
	ColumnEnrolledDate = "enrolled_date"
)

const (
	MinGrade = 1
	MaxGrade = 12
)

var Table = schema.Table{
	Name:  "students",
	Alias: "s",
	Columns: []schema.Column{
		{Name: ColumnID, Type: schema.Integer},
		{Name: ColumnName, Type: schema.Text, Nullable: true},
		{Name: ColumnEmail, Type: schema.Text, Nullable: true},
		{Name: ColumnGrade, Type: schema.Integer},
		{Name: ColumnBirthday, Type: schema.Timestamp, Nullable: true},
		{Name: ColumnEnrolledDate, Type: schema.Timestamp},
	},
	Uniques: []schema.Unique{
		{Name: "unique_email", Column: ColumnEmail},
	},
	Checks: []schema.Check{
		{Name: "grade_between_1_and_12", Expr: fmt.Sprintf("grade BETWEEN %d AND %d", MinGrade, MaxGrade)},
	},
	Indexes: []schema.Index{
		{Name: "index_name", Columns: []string{ColumnName}},
	},
}
