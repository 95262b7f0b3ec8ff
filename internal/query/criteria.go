package query

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Criteria is the user-facing multi-field filter. Empty fields are ignored.
type Criteria struct {
	Name       string           `json:"name"`
	Department string           `json:"department"`
	State      string           `json:"state"`
	MinSalary  *decimal.Decimal `json:"min_salary,omitempty"`
	MaxSalary  *decimal.Decimal `json:"max_salary,omitempty"`
}

// Predicates converts c into AND-ed predicates.
func (c Criteria) Predicates() []Predicate {
	var preds []Predicate
	if name := strings.TrimSpace(c.Name); name != "" {
		preds = append(preds, NameContains(name))
	}
	if dept := strings.TrimSpace(c.Department); dept != "" {
		preds = append(preds, DepartmentIs(dept))
	}
	if state := strings.TrimSpace(c.State); state != "" {
		preds = append(preds, StateIs(state))
	}
	if c.MinSalary != nil {
		preds = append(preds, SalaryAtLeast(*c.MinSalary))
	}
	if c.MaxSalary != nil {
		preds = append(preds, SalaryAtMost(*c.MaxSalary))
	}
	return preds
}

// InvertedRange reports whether both salary bounds are set and min > max.
func (c Criteria) InvertedRange() bool {
	return c.MinSalary != nil && c.MaxSalary != nil && c.MinSalary.GreaterThan(*c.MaxSalary)
}
