package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/repository"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Errors  []struct {
		Field string `json:"field"`
		Error string `json:"error"`
	} `json:"errors"`
}

type testServer struct {
	e  *echo.Echo
	v2 *EmployeeV2Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewEmployeeService(repository.NewEmployeeRepository(db), nil)
	e := echo.New()
	NewEmployeeHandler(svc).Register(e.Group("/api/employees"))
	v2 := NewEmployeeV2Handler(svc)
	v2.Register(e.Group("/api/v2/employees"))
	return &testServer{e: e, v2: v2}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func employeeJSON(name, email, dept, state string, salary int) string {
	return fmt.Sprintf(`{"employee_name":%q,"email":%q,"department":%q,"state":%q,"salary":%d}`,
		name, email, dept, state, salary)
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	for _, body := range []string{
		employeeJSON("Alice", "alice@x.com", "IT", "CA", 50000),
		employeeJSON("Bob", "bob@x.com", "HR", "NY", 40000),
		employeeJSON("Carol", "carol@x.com", "IT", "NY", 70000),
	} {
		rec := s.do(http.MethodPost, "/api/v2/employees/create", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestV1CreateAndGet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/employees/add", employeeJSON("Alice", "alice@x.com", "IT", "CA", 50000))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		ID           int    `json:"id"`
		EmployeeName string `json:"employee_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Alice", created.EmployeeName)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/employees/get/%d", created.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/employees/get/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Employee not found.", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/employees/add", employeeJSON("Alice 2", "alice@x.com", "HR", "NY", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/employees/add", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email must be a valid email address")
}

func TestV1DeleteMessages(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodDelete, "/api/employees/delete/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Employee with ID 1 deleted successfully.", rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/employees/delete/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/employees/bulk-delete", `[2, 3, 999]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully deleted 2 employees.", rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/employees/bulk-delete", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestV1BulkUpdateDepartment(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodPut, "/api/employees/bulk-update-department",
		`{"employee_ids":[1,2,999],"new_department":"Finance"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully updated department for 2 employees.", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/employees/filter/department?department=Finance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var employees []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &employees))
	assert.Len(t, employees, 2)

	rec = s.do(http.MethodPut, "/api/employees/bulk-update-department",
		`{"employee_ids":[999],"new_department":"Finance"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestV1Queries(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"list", "/api/employees/list", http.StatusOK, 3},
		{"search", "/api/employees/search?name=ali", http.StatusOK, 1},
		{"search requires name", "/api/employees/search", http.StatusBadRequest, -1},
		{"by state", "/api/employees/filter/state?state=NY", http.StatusOK, 2},
		{"advanced", "/api/employees/advanced-search?department=IT&minSalary=60000", http.StatusOK, 1},
		{"advanced bad number", "/api/employees/advanced-search?minSalary=abc", http.StatusBadRequest, -1},
		{"salary range", "/api/employees/salary-range?minSalary=40000&maxSalary=50000", http.StatusOK, 2},
		{"salary range inverted", "/api/employees/salary-range?minSalary=5&maxSalary=1", http.StatusBadRequest, -1},
		{"salary range missing", "/api/employees/salary-range?minSalary=5", http.StatusBadRequest, -1},
		{"top earners", "/api/employees/top-earners?count=2", http.StatusOK, 2},
		{"top earners clamped", "/api/employees/top-earners?count=500", http.StatusOK, 3},
		{"departments", "/api/employees/departments", http.StatusOK, 2},
		{"states", "/api/employees/states", http.StatusOK, 2},
		{"count by department", "/api/employees/count-by-department", http.StatusOK, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.count < 0 {
				return
			}
			var items []json.RawMessage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
			assert.Len(t, items, tt.count)
		})
	}
}

func TestV1StatisticsAndPagination(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodGet, "/api/employees/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalEmployees int    `json:"total_employees"`
		AverageSalary  string `json:"average_salary"`
		MaxSalary      string `json:"max_salary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalEmployees)
	assert.Equal(t, "53333.33", stats.AverageSalary)
	assert.Equal(t, "70000", stats.MaxSalary)

	rec = s.do(http.MethodGet, "/api/employees/paginated?page=2&pageSize=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []json.RawMessage `json:"data"`
		TotalCount int               `json:"total_count"`
		TotalPages int               `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)

	rec = s.do(http.MethodGet, "/api/employees/email-exists?email=bob@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email_exists":true}`, rec.Body.String())
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/v2/employees/create", employeeJSON("Smith, John", "john@x.com", "IT", "CA", 100))
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, path := range []string{"/api/employees/export-csv", "/api/v2/employees/export-csv"} {
		rec := s.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, `attachment; filename="employees.csv"`, rec.Header().Get(echo.HeaderContentDisposition))

		records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Smith, John", records[1][1])
	}
}

func TestV2Envelope(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodGet, "/api/v2/employees/list?department=IT&state=NY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	rec = s.do(http.MethodGet, "/api/v2/employees/get/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Employee not found", env.Message)


	rec = s.do(http.MethodPost, "/api/v2/employees/create", `{"employee_name":"X","salary":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	fields := map[string]string{}
	for _, fe := range env.Errors {
		fields[fe.Field] = fe.Error
	}
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "must be greater than or equal to 0", fields["salary"])
}

func TestV2CreateDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	for _, email := range []string{"alice@x.com", "ALICE@x.com"} {
		rec := s.do(http.MethodPost, "/api/v2/employees/create", employeeJSON("Dup", email, "IT", "CA", 1))
		require.Equal(t, http.StatusConflict, rec.Code, email)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "Email already exists", env.Message)
		assert.Empty(t, env.Data)
	}

	rec := s.do(http.MethodGet, "/api/v2/employees/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, *decodeEnvelope(t, rec).Count)
}

func TestV2UpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	body := employeeJSON("Alice", "alice@x.com", "Finance", "CA", 55000)
	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPut, "/api/v2/employees/update/1", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Employee updated successfully", decodeEnvelope(t, rec).Message)
	}

	rec := s.do(http.MethodPut, "/api/v2/employees/update/2", employeeJSON("Bob", "alice@x.com", "HR", "NY", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/v2/employees/update/abc", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v2/employees/delete/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/api/v2/employees/delete/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v2/employees/bulk-delete", `[2, 999]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully deleted 1 employees", decodeEnvelope(t, rec).Message)

	rec = s.do(http.MethodPut, "/api/v2/employees/bulk-update-department", `{"employee_ids":[3],"new_department":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestV2AdvancedSearch(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodPost, "/api/v2/employees/advanced-search", `{"department":"IT","min_salary":60000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decodeEnvelope(t, rec).Count)

	rec = s.do(http.MethodPost, "/api/v2/employees/advanced-search", `{"min_salary":10,"max_salary":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v2/employees/advanced-search-paginated", `{"state":"NY","page":1,"page_size":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []json.RawMessage `json:"data"`
		TotalCount int               `json:"total_count"`
		TotalPages int               `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
}

func TestV2TopEarnersBounds(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	for _, count := range []string{"0", "101"} {
		rec := s.do(http.MethodGet, "/api/v2/employees/top-earners?count="+count, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Count must be between 1 and 100", decodeEnvelope(t, rec).Message)
	}

	rec := s.do(http.MethodGet, "/api/v2/employees/top-earners?count=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decodeEnvelope(t, rec).Count)
}

func TestV2ExportXLSX(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(http.MethodGet, "/api/v2/employees/export-xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestV2FullTextSearchUnavailable(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v2/employees/fulltext-search?q=alice", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestV2Health(t *testing.T) {
	s := newTestServer(t)
	s.v2.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := s.do(http.MethodGet, "/api/v2/employees/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Employee Advanced API is running", env.Message)
	assert.JSONEq(t, `{"timestamp":"2024-01-02T03:04:05Z"}`, string(env.Data))
}
