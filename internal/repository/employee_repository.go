package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/shopspring/decimal"
)

const employeesTable = "employees"

var employeeColumns = []string{
	"id", "employee_name", "email", "department", "salary",
	"address1", "address2", "address3", "state", "district", "pincode",
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type employeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db *database.DB) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	q, args := r.db.NewBuilder().
		Insert(employeesTable, employeeColumns[1:]...).
		Values(e.EmployeeName, e.Email, e.Department, e.Salary,
			e.Address1, e.Address2, e.Address3, e.State, e.District, e.Pincode).
		Returning("id").
		Build()

	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&e.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int) (*domain.Employee, error) {
	q, args := r.db.NewBuilder().
		Select(employeeColumns...).
		From(employeesTable).
		Where("id = ?", id).
		Build()

	e, err := scanEmployee(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return &e, nil
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	q, args := r.db.NewBuilder().
		Update(employeesTable).
		Set("employee_name", e.EmployeeName).
		Set("email", e.Email).
		Set("department", e.Department).
		Set("salary", e.Salary).
		Set("address1", e.Address1).
		Set("address2", e.Address2).
		Set("address3", e.Address3).
		Set("state", e.State).
		Set("district", e.District).
		Set("pincode", e.Pincode).
		Where("id = ?", e.ID).
		Build()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update employee %d: %w", e.ID, err)
	}
	return requireAffected(res)
}

func (r *employeeRepository) Delete(ctx context.Context, id int) error {
	q, args := r.db.NewBuilder().
		Delete(employeesTable).
		Where("id = ?", id).
		Build()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, err)
	}
	return requireAffected(res)
}

func (r *employeeRepository) DeleteMany(ctx context.Context, ids []int) (int, error) {
	b := r.db.NewBuilder().Delete(employeesTable)
	query.IDIn(ids...).Apply(b)
	q, args := b.Build()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete employees: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func (r *employeeRepository) UpdateDepartment(ctx context.Context, ids []int, department string) ([]domain.Employee, error) {
	var updated []domain.Employee

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		b := r.db.NewBuilder().Update(employeesTable).Set("department", department)
		query.IDIn(ids...).Apply(b)
		q, args := b.Build()

		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("failed to bulk update department: %w", err)
		}

		var err error
		updated, err = r.find(ctx, tx, query.NewSpec(query.IDIn(ids...)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *employeeRepository) Find(ctx context.Context, spec query.Spec) ([]domain.Employee, error) {
	return r.find(ctx, r.db, spec)
}

func (r *employeeRepository) find(ctx context.Context, db queryer, spec query.Spec) ([]domain.Employee, error) {
	if len(spec.OrderBy) == 0 {
		spec = spec.Sorted(query.Asc(query.FieldID))
	}
	b := r.db.NewBuilder().Select(employeeColumns...).From(employeesTable)
	spec.Apply(b)
	q, args := b.Build()

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

func (r *employeeRepository) Count(ctx context.Context, preds ...query.Predicate) (int, error) {
	b := r.db.NewBuilder().Select("COUNT(*)").From(employeesTable)
	query.ApplyAll(b, preds...)
	q, args := b.Build()

	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}

func (r *employeeRepository) Exists(ctx context.Context, preds ...query.Predicate) (bool, error) {
	b := r.db.NewBuilder().Select("1").From(employeesTable).Limit(1)
	query.ApplyAll(b, preds...)
	q, args := b.Build()

	var one int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check employee existence: %w", err)
	}
	return true, nil
}

func (r *employeeRepository) CountBy(ctx context.Context, field query.Field, order query.GroupOrder) ([]domain.CategoryCount, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("cannot group by %q", field)
	}
	col := string(field)
	b := r.db.NewBuilder().
		Select(col, "COUNT(*) AS total").
		From(employeesTable).
		GroupBy(col)
	if order == query.ByCountDesc {
		b.OrderBy("total DESC")
	}
	b.OrderBy(col + " ASC")
	q, args := b.Build()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count employees by %s: %w", col, err)
	}
	defer rows.Close()

	counts := make([]domain.CategoryCount, 0)
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Value, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", col, err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *employeeRepository) Distinct(ctx context.Context, field query.Field) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("cannot list distinct %q", field)
	}
	col := string(field)
	q, args := r.db.NewBuilder().
		Select("DISTINCT " + col).
		From(employeesTable).
		OrderBy(col + " ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", col, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", col, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *employeeRepository) SalaryAggregate(ctx context.Context) (domain.SalaryAggregate, error) {
	q, args := r.db.NewBuilder().
		Select("COUNT(*)", "SUM(salary)", "MIN(salary)", "MAX(salary)").
		From(employeesTable).
		Build()

	var (
		agg           domain.SalaryAggregate
		sum, min, max decimal.NullDecimal
	)
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&agg.Count, &sum, &min, &max); err != nil {
		return domain.SalaryAggregate{}, fmt.Errorf("failed to aggregate salaries: %w", err)
	}
	agg.Sum = sum.Decimal
	agg.Min = min.Decimal
	agg.Max = max.Decimal
	return agg, nil
}

func scanEmployee(s scanner) (domain.Employee, error) {
	var e domain.Employee
	err := s.Scan(&e.ID, &e.EmployeeName, &e.Email, &e.Department, &e.Salary,
		&e.Address1, &e.Address2, &e.Address3, &e.State, &e.District, &e.Pincode)
	return e, err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
