package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/internal/service"
)

// EmployeeHandler serves the legacy /api/employees surface. Successful
// responses carry the raw value; failures are plain-text messages.
type EmployeeHandler struct {
	svc *service.EmployeeService
}

func NewEmployeeHandler(svc *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// Register mounts the legacy routes on g.
func (h *EmployeeHandler) Register(g *echo.Group) {
	g.POST("/add", h.CreateHandler)
	g.GET("/list", h.ListHandler)
	g.PUT("/update/:id", h.UpdateHandler)
	g.DELETE("/delete/:id", h.DeleteHandler)
	g.GET("/get/:id", h.GetHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/filter/department", h.ByDepartmentHandler)
	g.GET("/filter/state", h.ByStateHandler)
	g.GET("/paginated", h.PaginatedHandler)
	g.GET("/statistics", h.StatisticsHandler)
	g.GET("/departments", h.DepartmentsHandler)
	g.GET("/states", h.StatesHandler)
	g.DELETE("/bulk-delete", h.BulkDeleteHandler)
	g.PUT("/bulk-update-department", h.BulkUpdateDepartmentHandler)
	g.GET("/advanced-search", h.AdvancedSearchHandler)
	g.GET("/salary-range", h.SalaryRangeHandler)
	g.GET("/top-earners", h.TopEarnersHandler)
	g.GET("/email-exists", h.EmailExistsHandler)
	g.GET("/count-by-department", h.CountByDepartmentHandler)
	g.GET("/export-csv", h.ExportCSVHandler)
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	var req domain.EmployeeInput
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Employee data is required.")
	}

	emp, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	employees, err := h.svc.List(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) UpdateHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return legacyError(c, err)
	}

	var req domain.EmployeeInput
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Employee data is required.")
	}

	emp, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return legacyError(c, err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return legacyError(c, err)
	}
	return c.String(http.StatusOK, fmt.Sprintf("Employee with ID %d deleted successfully.", id))
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return legacyError(c, err)
	}

	emp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHandler) SearchHandler(c echo.Context) error {
	employees, err := h.svc.SearchByName(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) ByDepartmentHandler(c echo.Context) error {
	employees, err := h.svc.ByDepartment(c.Request().Context(), c.QueryParam("department"))
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) ByStateHandler(c echo.Context) error {
	employees, err := h.svc.ByState(c.Request().Context(), c.QueryParam("state"))
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) PaginatedHandler(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return legacyError(c, err)
	}

	result, err := h.svc.ListPaginated(c.Request().Context(), page, size)
	if err != nil {
		return legacyError(c, err)
	}
	result.Data = nonNil(result.Data)
	return c.JSON(http.StatusOK, result)
}

func (h *EmployeeHandler) StatisticsHandler(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *EmployeeHandler) DepartmentsHandler(c echo.Context) error {
	departments, err := h.svc.Departments(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(departments))
}

func (h *EmployeeHandler) StatesHandler(c echo.Context) error {
	states, err := h.svc.States(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(states))
}

func (h *EmployeeHandler) BulkDeleteHandler(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return legacyError(c, err)
	}

	n, err := h.svc.BulkDelete(c.Request().Context(), ids)
	if err != nil {
		return legacyError(c, err)
	}
	return c.String(http.StatusOK, fmt.Sprintf("Successfully deleted %d employees.", n))
}

func (h *EmployeeHandler) BulkUpdateDepartmentHandler(c echo.Context) error {
	var req domain.BulkUpdateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Employee IDs are required.")
	}

	n, err := h.svc.BulkUpdateDepartment(c.Request().Context(), req)
	if err != nil {
		return legacyError(c, err)
	}
	return c.String(http.StatusOK, fmt.Sprintf("Successfully updated department for %d employees.", n))
}

func (h *EmployeeHandler) AdvancedSearchHandler(c echo.Context) error {
	criteria, err := criteriaQuery(c)
	if err != nil {
		return legacyError(c, err)
	}

	employees, err := h.svc.AdvancedSearch(c.Request().Context(), criteria)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) SalaryRangeHandler(c echo.Context) error {
	min, max, err := salaryBounds(c)
	if err != nil {
		return legacyError(c, err)
	}

	employees, err := h.svc.SalaryRange(c.Request().Context(), min, max)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) TopEarnersHandler(c echo.Context) error {
	count, err := intQuery(c, "count", query.DefaultTopCount)
	if err != nil {
		return legacyError(c, err)
	}

	employees, err := h.svc.TopEarners(c.Request().Context(), count)
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(employees))
}

func (h *EmployeeHandler) EmailExistsHandler(c echo.Context) error {
	exists, err := h.svc.EmailExists(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, emailExists{EmailExists: exists})
}

func (h *EmployeeHandler) CountByDepartmentHandler(c echo.Context) error {
	counts, err := h.svc.CountByDepartment(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(counts))
}

func (h *EmployeeHandler) ExportCSVHandler(c echo.Context) error {
	data, err := h.svc.ExportCSV(c.Request().Context())
	if err != nil {
		return legacyError(c, err)
	}
	return csvAttachment(c, data)
}

type emailExists struct {
	EmailExists bool `json:"email_exists"`
}

// legacyError writes known failures as plain text and hands anything else
// to echo's error handler.
func legacyError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.String(http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		return c.String(http.StatusNotFound, "Employee not found.")
	case errors.Is(err, domain.ErrDuplicateEmail):
		return c.String(http.StatusConflict, "Email already exists.")
	case errors.Is(err, domain.ErrSearchUnavailable):
		return c.String(http.StatusServiceUnavailable, "Full-text search is unavailable.")
	}
	return err
}

func pageParams(c echo.Context) (int, int, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := intQuery(c, "pageSize", query.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

// criteriaQuery reads the advanced-search filters from the query string.
func criteriaQuery(c echo.Context) (query.Criteria, error) {
	criteria := query.Criteria{
		Name:       c.QueryParam("name"),
		Department: c.QueryParam("department"),
		State:      c.QueryParam("state"),
	}
	var err error
	if criteria.MinSalary, err = decimalQuery(c, "minSalary"); err != nil {
		return criteria, err
	}
	if criteria.MaxSalary, err = decimalQuery(c, "maxSalary"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
