package domain

import (
	"context"

	"github.com/locvowork/employee_records/internal/query"
)

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id int) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id int) error

	// Bulk operations. Unknown ids are ignored.
	DeleteMany(ctx context.Context, ids []int) (int, error)
	UpdateDepartment(ctx context.Context, ids []int, department string) ([]Employee, error)

	// Queries
	Find(ctx context.Context, spec query.Spec) ([]Employee, error)
	Count(ctx context.Context, preds ...query.Predicate) (int, error)
	Exists(ctx context.Context, preds ...query.Predicate) (bool, error)
	CountBy(ctx context.Context, field query.Field, order query.GroupOrder) ([]CategoryCount, error)
	Distinct(ctx context.Context, field query.Field) ([]string, error)
	SalaryAggregate(ctx context.Context) (SalaryAggregate, error)
}

// EmployeeIndex is a full-text search mirror of the employee table.
type EmployeeIndex interface {
	Index(ctx context.Context, e Employee) error
	BulkIndex(ctx context.Context, employees []Employee) error
	Delete(ctx context.Context, ids ...int) error
	Search(ctx context.Context, text string, limit int) ([]Employee, error)
}
