package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Employee represents a row of the employees table
type Employee struct {
	ID           int             `json:"id" db:"id"`
	EmployeeName string          `json:"employee_name" db:"employee_name"`
	Email        string          `json:"email" db:"email"`
	Department   string          `json:"department" db:"department"`
	Salary       decimal.Decimal `json:"salary" db:"salary"`
	Address1     string          `json:"address1" db:"address1"`
	Address2     string          `json:"address2" db:"address2"`
	Address3     string          `json:"address3" db:"address3"`
	State        string          `json:"state" db:"state"`
	District     string          `json:"district" db:"district"`
	Pincode      string          `json:"pincode" db:"pincode"`
}

// EmployeeInput is the writable part of an employee, as received from clients.
type EmployeeInput struct {
	EmployeeName string          `json:"employee_name" validate:"required,max=100"`
	Email        string          `json:"email" validate:"required,email,max=255"`
	Department   string          `json:"department" validate:"required,max=50"`
	Salary       decimal.Decimal `json:"salary" validate:"gte=0"`
	Address1     string          `json:"address1" validate:"max=200"`
	Address2     string          `json:"address2" validate:"max=200"`
	Address3     string          `json:"address3" validate:"max=200"`
	State        string          `json:"state" validate:"required,max=50"`
	District     string          `json:"district" validate:"max=50"`
	Pincode      string          `json:"pincode" validate:"max=10"`
}

// Normalize trims surrounding whitespace from every text field.
func (in *EmployeeInput) Normalize() {
	for _, s := range []*string{
		&in.EmployeeName, &in.Email, &in.Department, &in.Address1, &in.Address2,
		&in.Address3, &in.State, &in.District, &in.Pincode,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// ToEmployee builds an Employee carrying id and the values of in.
func (in EmployeeInput) ToEmployee(id int) Employee {
	return Employee{
		ID:           id,
		EmployeeName: in.EmployeeName,
		Email:        in.Email,
		Department:   in.Department,
		Salary:       in.Salary,
		Address1:     in.Address1,
		Address2:     in.Address2,
		Address3:     in.Address3,
		State:        in.State,
		District:     in.District,
		Pincode:      in.Pincode,
	}
}

// BulkUpdateDepartmentRequest moves a set of employees to a new department.
type BulkUpdateDepartmentRequest struct {
	EmployeeIDs   []int  `json:"employee_ids" validate:"required,min=1"`
	NewDepartment string `json:"new_department" validate:"required,max=50"`
}

// PaginatedResult is one page of a filtered, ordered result set.
type PaginatedResult[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// CategoryCount is the number of employees sharing one department or state.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SalaryAggregate holds the raw salary aggregates of the whole table.
type SalaryAggregate struct {
	Count int
	Sum   decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

// Statistics summarizes the employee table.
type Statistics struct {
	TotalEmployees      int             `json:"total_employees"`
	AverageSalary       decimal.Decimal `json:"average_salary"`
	MaxSalary           decimal.Decimal `json:"max_salary"`
	MinSalary           decimal.Decimal `json:"min_salary"`
	DepartmentBreakdown []CategoryCount `json:"department_breakdown"`
	StateBreakdown      []CategoryCount `json:"state_breakdown"`
}
