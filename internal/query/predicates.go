package query

import (
	"strings"

	"github.com/locvowork/employee_records/internal/repository/builder"
	"github.com/shopspring/decimal"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type nameContains struct{ term string }

// NameContains matches employees whose name contains term, ignoring case.
// LIKE wildcards in term are matched literally.
func NameContains(term string) Predicate {
	return nameContains{term: term}
}

func (p nameContains) Apply(b *builder.SQLBuilder) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(p.term)) + "%"
	b.Where(`LOWER(employee_name) LIKE ? ESCAPE '\'`, pattern)
}

type equals struct {
	field Field
	value interface{}
}

// Equals matches rows where field equals value exactly.
func Equals(field Field, value interface{}) Predicate {
	return equals{field: field, value: value}
}

// DepartmentIs matches an exact department.
func DepartmentIs(department string) Predicate { return Equals(FieldDepartment, department) }

// StateIs matches an exact state.
func StateIs(state string) Predicate { return Equals(FieldState, state) }

type emailIs struct{ email string }

// EmailIs matches an email ignoring case, the same way the unique index compares them.
func EmailIs(email string) Predicate { return emailIs{email: email} }

func (p emailIs) Apply(b *builder.SQLBuilder) {
	b.Where("LOWER(email) = ?", strings.ToLower(p.email))
}

func (p equals) Apply(b *builder.SQLBuilder) {
	if !p.field.Valid() {
		return
	}
	b.Where(string(p.field)+" = ?", p.value)
}

type salaryBound struct {
	amount decimal.Decimal
	op     string
}

// SalaryAtLeast matches salary >= min.
func SalaryAtLeast(min decimal.Decimal) Predicate { return salaryBound{amount: min, op: ">="} }

// SalaryAtMost matches salary <= max.
func SalaryAtMost(max decimal.Decimal) Predicate { return salaryBound{amount: max, op: "<="} }

func (p salaryBound) Apply(b *builder.SQLBuilder) {
	b.Where("salary "+p.op+" ?", p.amount)
}

type idIn struct{ ids []int }

// IDIn matches any of ids. An empty list matches nothing.
func IDIn(ids ...int) Predicate { return idIn{ids: ids} }

func (p idIn) Apply(b *builder.SQLBuilder) {
	vals := make([]interface{}, len(p.ids))
	for i, id := range p.ids {
		vals[i] = id
	}
	b.WhereIn(string(FieldID), vals...)
}
