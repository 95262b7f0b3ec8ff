package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[int]domain.Employee
	failing bool
}

func (f *fakeIndex) Index(ctx context.Context, e domain.Employee) error {
	return f.BulkIndex(ctx, []domain.Employee{e})
}

func (f *fakeIndex) BulkIndex(_ context.Context, es []domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("index down")
	}
	for _, e := range es {
		f.docs[e.ID] = e
	}
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, ids ...int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.docs, id)
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, text string, limit int) ([]domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Employee
	for _, e := range f.docs {
		if e.EmployeeName == text && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*EmployeeService, *fakeIndex) {
	t.Helper()
	db, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	idx := &fakeIndex{docs: map[int]domain.Employee{}}
	return NewEmployeeService(repository.NewEmployeeRepository(db), idx), idx
}

func input(name, email, dept, state, salary string) domain.EmployeeInput {
	return domain.EmployeeInput{
		EmployeeName: name,
		Email:        email,
		Department:   dept,
		State:        state,
		Salary:       decimal.RequireFromString(salary),
	}
}

func mustCreate(t *testing.T, svc *EmployeeService, in domain.EmployeeInput) *domain.Employee {
	t.Helper()
	e, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return e
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustCreate(t, svc, input("Alice", "alice@x.com", "IT", "CA", "50000"))

	_, err := svc.Create(ctx, input("Alice B", "alice@x.com", "HR", "NY", "1"))

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	_, err = svc.Create(ctx, input("Alice C", "Alice@X.com", "HR", "NY", "1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateValidatesAndTrims(t *testing.T) {
	ctx := context.Background()
	svc, idx := newTestService(t)

	_, err := svc.Create(ctx, input("   ", "bad", "IT", "CA", "-5"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	e, err := svc.Create(ctx, input("  Bob  ", " bob@x.com ", "IT", "CA", "10"))
	require.NoError(t, err)
	assert.Equal(t, "Bob", e.EmployeeName)
	assert.Equal(t, "bob@x.com", e.Email)
	assert.Contains(t, idx.docs, e.ID)
}

func TestIndexFailureDoesNotFailWrites(t *testing.T) {
	svc, idx := newTestService(t)
	idx.failing = true

	e, err := svc.Create(context.Background(), input("Bob", "bob@x.com", "IT", "CA", "10"))
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, idx := newTestService(t)
	a := mustCreate(t, svc, input("Alice", "alice@x.com", "IT", "CA", "50000"))

	in := input("Alice", "alice@x.com", "Finance", "CA", "55000")
	first, err := svc.Update(ctx, a.ID, in)
	require.NoError(t, err)
	second, err := svc.Update(ctx, a.ID, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "Finance", idx.docs[a.ID].Department)

	_, err = svc.Update(ctx, 999, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.NotContains(t, idx.docs, a.ID)
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), domain.ErrNotFound)
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBulkUpdateDepartmentCountsMatchedOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, input("A", "a@x.com", "IT", "CA", "1"))
	b := mustCreate(t, svc, input("B", "b@x.com", "HR", "CA", "1"))
	c := mustCreate(t, svc, input("C", "c@x.com", "HR", "CA", "1"))

	n, err := svc.BulkUpdateDepartment(ctx, domain.BulkUpdateDepartmentRequest{
		EmployeeIDs: []int{a.ID, b.ID, 999}, NewDepartment: "Finance",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "HR", got.Department)

	_, err = svc.BulkUpdateDepartment(ctx, domain.BulkUpdateDepartmentRequest{EmployeeIDs: []int{999}, NewDepartment: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.BulkUpdateDepartment(ctx, domain.BulkUpdateDepartmentRequest{EmployeeIDs: []int{a.ID}})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBulkDelete(t *testing.T) {
	ctx := context.Background()
	svc, idx := newTestService(t)
	a := mustCreate(t, svc, input("A", "a@x.com", "IT", "CA", "1"))
	mustCreate(t, svc, input("B", "b@x.com", "HR", "CA", "1"))

	_, err := svc.BulkDelete(ctx, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	n, err := svc.BulkDelete(ctx, []int{a.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, idx.docs, 1)

	_, err = svc.BulkDelete(ctx, []int{a.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPagesReconstructFilteredSet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for i, name := range []string{"Ann", "Ben", "Cal", "Dan", "Eve", "Fay", "Gus"} {
		dept := "IT"
		if i%3 == 0 {
			dept = "HR"
		}
		mustCreate(t, svc, input(name, name+"@x.com", dept, "CA", "100"))
	}

	want, err := svc.AdvancedSearch(ctx, query.Criteria{Department: "IT"})
	require.NoError(t, err)
	require.Len(t, want, 4)

	var got []domain.Employee
	for page := 1; ; page++ {
		res, err := svc.AdvancedSearchPaginated(ctx, query.Criteria{Department: "IT"}, page, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, res.TotalCount)
		assert.Equal(t, 2, res.TotalPages)
		if len(res.Data) == 0 {
			break
		}
		got = append(got, res.Data...)
	}
	assert.Equal(t, want, got)

	beyond, err := svc.ListPaginated(ctx, math.MaxInt/10+2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 7, beyond.TotalCount)

	res, err := svc.ListPaginated(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, query.DefaultPageSize, res.PageSize)
	assert.Len(t, res.Data, 7)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	empty, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalEmployees)
	assert.True(t, empty.AverageSalary.IsZero())
	assert.Empty(t, empty.DepartmentBreakdown)

	mustCreate(t, svc, input("A", "a@x.com", "IT", "CA", "100"))
	mustCreate(t, svc, input("B", "b@x.com", "IT", "NY", "200"))
	mustCreate(t, svc, input("C", "c@x.com", "HR", "NY", "201"))

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEmployees)
	assert.Equal(t, "167", stats.AverageSalary.String())
	assert.True(t, stats.MinSalary.Equal(decimal.NewFromInt(100)))
	assert.True(t, stats.MaxSalary.Equal(decimal.NewFromInt(201)))
	assert.Equal(t, []domain.CategoryCount{{Value: "HR", Count: 1}, {Value: "IT", Count: 2}}, stats.DepartmentBreakdown)
	assert.Equal(t, []domain.CategoryCount{{Value: "CA", Count: 1}, {Value: "NY", Count: 2}}, stats.StateBreakdown)

	byCount, err := svc.CountByDepartment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "IT", byCount[0].Value)
}

func TestSalaryQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustCreate(t, svc, input("A", "a@x.com", "IT", "CA", "300"))
	mustCreate(t, svc, input("B", "b@x.com", "IT", "CA", "100"))
	mustCreate(t, svc, input("C", "c@x.com", "IT", "CA", "200"))

	inRange, err := svc.SalaryRange(ctx, decimal.NewFromInt(100), decimal.NewFromInt(200))
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "B", inRange[0].EmployeeName)

	_, err = svc.SalaryRange(ctx, decimal.NewFromInt(5), decimal.NewFromInt(1))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	top, err := svc.TopEarners(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].EmployeeName)
	assert.Equal(t, "C", top[1].EmployeeName)

	all, err := svc.TopEarners(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustCreate(t, svc, input("Alice Smith", "alice@x.com", "IT", "CA", "1"))
	mustCreate(t, svc, input("Bob", "bob@x.com", "HR", "NY", "1"))

	found, err := svc.SearchByName(ctx, "SMITH")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = svc.SearchByName(ctx, " ")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	exists, err := svc.EmailExists(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	depts, err := svc.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HR", "IT"}, depts)

	states, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "NY"}, states)

	filtered, err := svc.ListFiltered(ctx, "IT", "NY")
	require.NoError(t, err)
	assert.Empty(t, filtered)

	byState, err := svc.ByState(ctx, "NY")
	require.NoError(t, err)
	assert.Len(t, byState, 1)

	hits, err := svc.FullTextSearch(ctx, "Bob", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestFullTextSearchWithoutIndex(t *testing.T) {
	db, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	defer db.Close()

	svc := NewEmployeeService(repository.NewEmployeeRepository(db), nil)
	_, err = svc.FullTextSearch(context.Background(), "x", 10)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestExportCSVQuotesFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	in := input("Smith, John", "john@x.com", "IT", "CA", "50000.5")
	in.Address1 = `12 "Main" St`
	e := mustCreate(t, svc, in)

	data, err := svc.ExportCSV(ctx)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Smith, John", records[1][1])
	assert.Equal(t, "50000.50", records[1][4])
	assert.Equal(t, `12 "Main" St`, records[1][5])
	assert.Contains(t, string(data), `"Smith, John"`)
	assert.Equal(t, e.Email, records[1][2])
}

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	mustCreate(t, svc, input("Alice", "alice@x.com", "IT", "CA", "1234.5"))

	data, err := svc.ExportXLSX(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Employees", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	salary, err := f.GetCellValue("Employees", "E3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1234.5", salary)

	// title, header and one row, then two spacer rows
	dept, err := f.GetCellValue("Employees", "A6")
	require.NoError(t, err)
	assert.Equal(t, "Head Count by Department", dept)
}
