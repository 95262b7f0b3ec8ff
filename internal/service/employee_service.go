package service

import (
	"context"
	"strings"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/internal/validation"
	"github.com/shopspring/decimal"
)

// EmployeeService handles business logic for employees
type EmployeeService struct {
	repo  domain.EmployeeRepository
	index domain.EmployeeIndex
}

// NewEmployeeService creates a new EmployeeService instance. index may be
// nil, in which case full-text search reports ErrSearchUnavailable.
func NewEmployeeService(repo domain.EmployeeRepository, index domain.EmployeeIndex) *EmployeeService {
	return &EmployeeService{repo: repo, index: index}
}

// ==================== Single-record operations ====================

// Create validates in and stores a new employee.
func (s *EmployeeService) Create(ctx context.Context, in domain.EmployeeInput) (*domain.Employee, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	e := in.ToEmployee(0)
	if err := s.repo.Create(ctx, &e); err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "Created employee %d", e.ID)

	s.syncIndex(ctx, e)
	return &e, nil
}

// Get returns one employee by id.
func (s *EmployeeService) Get(ctx context.Context, id int) (*domain.Employee, error) {
	return s.repo.GetByID(ctx, id)
}

// Update overwrites every writable field of employee id.
func (s *EmployeeService) Update(ctx context.Context, id int, in domain.EmployeeInput) (*domain.Employee, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	e := in.ToEmployee(id)
	if err := s.repo.Update(ctx, &e); err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "Updated employee %d", id)

	s.syncIndex(ctx, e)
	return &e, nil
}

// Delete removes employee id.
func (s *EmployeeService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoLog(ctx, "Deleted employee %d", id)

	s.unindex(ctx, id)
	return nil
}

// ==================== Listing and filtering ====================

// List returns every employee ordered by id.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.Find(ctx, query.Spec{})
}

// ListFiltered returns employees matching the non-empty department and state.
func (s *EmployeeService) ListFiltered(ctx context.Context, department, state string) ([]domain.Employee, error) {
	c := query.Criteria{Department: department, State: state}
	return s.repo.Find(ctx, query.NewSpec(c.Predicates()...))
}

// SearchByName returns employees whose name contains name, ignoring case.
func (s *EmployeeService) SearchByName(ctx context.Context, name string) ([]domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, required("name", "Search term is required")
	}
	return s.repo.Find(ctx, query.NewSpec(query.NameContains(name)))
}

// ByDepartment returns employees of exactly department.
func (s *EmployeeService) ByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, required("department", "Department is required")
	}
	return s.repo.Find(ctx, query.NewSpec(query.DepartmentIs(department)))
}

// ByState returns employees of exactly state.
func (s *EmployeeService) ByState(ctx context.Context, state string) ([]domain.Employee, error) {
	state = strings.TrimSpace(state)
	if state == "" {
		return nil, required("state", "State is required")
	}
	return s.repo.Find(ctx, query.NewSpec(query.StateIs(state)))
}

// ListPaginated returns one page of all employees.
func (s *EmployeeService) ListPaginated(ctx context.Context, page, pageSize int) (*domain.PaginatedResult[domain.Employee], error) {
	return s.paginate(ctx, nil, query.NewPage(page, pageSize))
}

// AdvancedSearch returns every employee matching c.
func (s *EmployeeService) AdvancedSearch(ctx context.Context, c query.Criteria) ([]domain.Employee, error) {
	if err := checkRange(c); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, query.NewSpec(c.Predicates()...))
}

// AdvancedSearchPaginated returns one page of employees matching c.
func (s *EmployeeService) AdvancedSearchPaginated(ctx context.Context, c query.Criteria, page, pageSize int) (*domain.PaginatedResult[domain.Employee], error) {
	if err := checkRange(c); err != nil {
		return nil, err
	}
	return s.paginate(ctx, c.Predicates(), query.NewPage(page, pageSize))
}

// SalaryRange returns employees earning within [min, max], lowest first.
func (s *EmployeeService) SalaryRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Employee, error) {
	c := query.Criteria{MinSalary: &min, MaxSalary: &max}
	if err := checkRange(c); err != nil {
		return nil, err
	}
	spec := query.NewSpec(c.Predicates()...).
		Sorted(query.Asc(query.FieldSalary), query.Asc(query.FieldID))
	return s.repo.Find(ctx, spec)
}

// TopEarners returns the count highest-paid employees; count is clamped to [1, 100].
func (s *EmployeeService) TopEarners(ctx context.Context, count int) ([]domain.Employee, error) {
	spec := query.Spec{}.
		Sorted(query.Desc(query.FieldSalary), query.Asc(query.FieldID)).
		Window(query.ClampCount(count), 0)
	return s.repo.Find(ctx, spec)
}

// EmailExists reports whether any employee uses email.
func (s *EmployeeService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, required("email", "Email is required")
	}
	return s.repo.Exists(ctx, query.EmailIs(email))
}

func (s *EmployeeService) paginate(ctx context.Context, preds []query.Predicate, page query.Page) (*domain.PaginatedResult[domain.Employee], error) {
	total, err := s.repo.Count(ctx, preds...)
	if err != nil {
		return nil, err
	}
	data, err := s.repo.Find(ctx, query.NewSpec(preds...).Sorted(query.Asc(query.FieldID)).Paged(page))
	if err != nil {
		return nil, err
	}
	return &domain.PaginatedResult[domain.Employee]{
		Data:       data,
		TotalCount: total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ==================== Aggregates ====================

// Statistics returns count, salary aggregates and per-department and
// per-state breakdowns. An empty table yields zeros.
func (s *EmployeeService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	agg, err := s.repo.SalaryAggregate(ctx)
	if err != nil {
		return nil, err
	}
	byDept, err := s.repo.CountBy(ctx, query.FieldDepartment, query.ByValue)
	if err != nil {
		return nil, err
	}
	byState, err := s.repo.CountBy(ctx, query.FieldState, query.ByValue)
	if err != nil {
		return nil, err
	}

	stats := &domain.Statistics{
		TotalEmployees:      agg.Count,
		AverageSalary:       decimal.Zero,
		MinSalary:           agg.Min,
		MaxSalary:           agg.Max,
		DepartmentBreakdown: byDept,
		StateBreakdown:      byState,
	}
	if agg.Count > 0 {
		stats.AverageSalary = agg.Sum.Div(decimal.NewFromInt(int64(agg.Count))).Round(2)
	}
	return stats, nil
}

// Departments returns the distinct departments, ascending.
func (s *EmployeeService) Departments(ctx context.Context) ([]string, error) {
	return s.repo.Distinct(ctx, query.FieldDepartment)
}

// States returns the distinct states, ascending.
func (s *EmployeeService) States(ctx context.Context) ([]string, error) {
	return s.repo.Distinct(ctx, query.FieldState)
}

// CountByDepartment returns department head counts, largest first.
func (s *EmployeeService) CountByDepartment(ctx context.Context) ([]domain.CategoryCount, error) {
	return s.repo.CountBy(ctx, query.FieldDepartment, query.ByCountDesc)
}

// ==================== Bulk operations ====================

// BulkDelete removes the listed employees and returns how many existed.
func (s *EmployeeService) BulkDelete(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, required("employee_ids", "No employee IDs provided")
	}
	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrNotFound
	}
	logger.InfoLog(ctx, "Bulk deleted %d employees", n)

	s.unindex(ctx, ids...)
	return n, nil
}

// BulkUpdateDepartment moves the listed employees to a new department and
// returns how many existed.
func (s *EmployeeService) BulkUpdateDepartment(ctx context.Context, req domain.BulkUpdateDepartmentRequest) (int, error) {
	req.NewDepartment = strings.TrimSpace(req.NewDepartment)
	if err := validation.Struct(req); err != nil {
		return 0, err
	}
	updated, err := s.repo.UpdateDepartment(ctx, req.EmployeeIDs, req.NewDepartment)
	if err != nil {
		return 0, err
	}
	if len(updated) == 0 {
		return 0, domain.ErrNotFound
	}
	logger.InfoLog(ctx, "Moved %d employees to %s", len(updated), req.NewDepartment)

	s.syncIndex(ctx, updated...)
	return len(updated), nil
}

// ==================== Full-text search ====================

// FullTextSearch queries the search index; limit is clamped like TopEarners.
func (s *EmployeeService) FullTextSearch(ctx context.Context, text string, limit int) ([]domain.Employee, error) {
	if s.index == nil {
		return nil, domain.ErrSearchUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, required("q", "Search text is required")
	}
	return s.index.Search(ctx, text, query.ClampCount(limit))
}

// syncIndex mirrors employees into the search index. Failures are logged only.
func (s *EmployeeService) syncIndex(ctx context.Context, employees ...domain.Employee) {
	if s.index == nil || len(employees) == 0 {
		return
	}
	var err error
	if len(employees) == 1 {
		err = s.index.Index(ctx, employees[0])
	} else {
		err = s.index.BulkIndex(ctx, employees)
	}
	if err != nil {
		logger.WarnLog(ctx, "Search index out of sync: %v", err)
	}
}

func (s *EmployeeService) unindex(ctx context.Context, ids ...int) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(ctx, ids...); err != nil {
		logger.WarnLog(ctx, "Search index out of sync: %v", err)
	}
}

func required(field, msg string) error {
	return domain.NewValidationError(msg, domain.FieldError{Field: field, Error: "is required"})
}

func checkRange(c query.Criteria) error {
	if c.InvertedRange() {
		return domain.NewValidationError("Minimum salary cannot be greater than maximum salary",
			domain.FieldError{Field: "min_salary", Error: "must not exceed max_salary"})
	}
	return nil
}
