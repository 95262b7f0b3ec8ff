// Package query holds the composable filtering, ordering, grouping and
// pagination primitives used to read employee records.
package query

import (
	"github.com/locvowork/employee_records/internal/repository/builder"
)

// Field is a whitelisted employee column usable in filters, ordering,
// grouping and distinct queries.
type Field string

const (
	FieldID         Field = "id"
	FieldName       Field = "employee_name"
	FieldEmail      Field = "email"
	FieldDepartment Field = "department"
	FieldSalary     Field = "salary"
	FieldState      Field = "state"
)

// Valid reports whether f is a known column.
func (f Field) Valid() bool {
	switch f {
	case FieldID, FieldName, FieldEmail, FieldDepartment, FieldSalary, FieldState:
		return true
	}
	return false
}

// Predicate narrows a set of employee rows. Predicates in a Spec are AND-ed.
type Predicate interface {
	Apply(b *builder.SQLBuilder)
}

// Order is one ORDER BY term.
type Order struct {
	Field Field
	Desc  bool
}

func (o Order) clause() string {
	if o.Desc {
		return string(o.Field) + " DESC"
	}
	return string(o.Field) + " ASC"
}

// Asc orders by f ascending.
func Asc(f Field) Order { return Order{Field: f} }

// Desc orders by f descending.
func Desc(f Field) Order { return Order{Field: f, Desc: true} }

// Spec describes a read: predicates, ordering and an optional window.
// A zero Limit means no limit.
type Spec struct {
	Where   []Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// NewSpec returns a Spec filtered by preds.
func NewSpec(preds ...Predicate) Spec {
	return Spec{Where: preds}
}

// Sorted returns a copy of s ordered by the given terms.
func (s Spec) Sorted(orders ...Order) Spec {
	s.OrderBy = append(append([]Order(nil), s.OrderBy...), orders...)
	return s
}

// Window returns a copy of s restricted to limit rows after offset.
func (s Spec) Window(limit, offset int) Spec {
	s.Limit = limit
	s.Offset = offset
	return s
}

// Paged returns a copy of s restricted to page p.
func (s Spec) Paged(p Page) Spec {
	return s.Window(p.Size, p.Offset())
}

// ApplyWhere writes only the predicates of s into b.
func (s Spec) ApplyWhere(b *builder.SQLBuilder) {
	ApplyAll(b, s.Where...)
}

// Apply writes predicates, ordering and window of s into b.
func (s Spec) Apply(b *builder.SQLBuilder) {
	s.ApplyWhere(b)
	for _, o := range s.OrderBy {
		if o.Field.Valid() {
			b.OrderBy(o.clause())
		}
	}
	if s.Limit > 0 {
		b.Limit(s.Limit)
	}
	if s.Offset > 0 {
		b.Offset(s.Offset)
	}
}

// ApplyAll writes every non-nil predicate into b.
func ApplyAll(b *builder.SQLBuilder, preds ...Predicate) {
	for _, p := range preds {
		if p != nil {
			p.Apply(b)
		}
	}
}

// GroupOrder selects how grouped counts are sorted.
type GroupOrder int

const (
	// ByValue sorts groups by their value ascending.
	ByValue GroupOrder = iota
	// ByCountDesc sorts groups by count descending, then value ascending.
	ByCountDesc
)
