package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/internal/service"
)

// EmployeeV2Handler serves /api/v2/employees. Every JSON response is a Response envelope.
type EmployeeV2Handler struct {
	svc *service.EmployeeService
	now func() time.Time
}

func NewEmployeeV2Handler(svc *service.EmployeeService) *EmployeeV2Handler {
	return &EmployeeV2Handler{svc: svc, now: time.Now}
}

// Register mounts the v2 routes on g.
func (h *EmployeeV2Handler) Register(g *echo.Group) {
	g.GET("/get/:id", h.GetHandler)
	g.GET("/list", h.ListHandler)
	g.GET("/paginated", h.PaginatedHandler)
	g.POST("/create", h.CreateHandler)
	g.PUT("/update/:id", h.UpdateHandler)
	g.DELETE("/delete/:id", h.DeleteHandler)
	g.GET("/search", h.SearchHandler)
	g.POST("/advanced-search", h.AdvancedSearchHandler)
	g.POST("/advanced-search-paginated", h.AdvancedSearchPaginatedHandler)
	g.GET("/salary-range", h.SalaryRangeHandler)
	g.GET("/top-earners", h.TopEarnersHandler)
	g.GET("/statistics", h.StatisticsHandler)
	g.GET("/departments", h.DepartmentsHandler)
	g.GET("/states", h.StatesHandler)
	g.GET("/email-exists", h.EmailExistsHandler)
	g.DELETE("/bulk-delete", h.BulkDeleteHandler)
	g.PUT("/bulk-update-department", h.BulkUpdateDepartmentHandler)
	g.GET("/export-csv", h.ExportCSVHandler)
	g.GET("/export-xlsx", h.ExportXLSXHandler)
	g.GET("/count-by-department", h.CountByDepartmentHandler)
	g.GET("/fulltext-search", h.FullTextSearchHandler)
	g.GET("/health", h.HealthHandler)
}

// searchRequest is the body of the advanced-search endpoints.
type searchRequest struct {
	query.Criteria
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type healthStatus struct {
	Timestamp time.Time `json:"timestamp"`
}

func (h *EmployeeV2Handler) GetHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return HandleError(c, err)
	}

	emp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, "", emp)
}

func (h *EmployeeV2Handler) ListHandler(c echo.Context) error {
	employees, err := h.svc.ListFiltered(c.Request().Context(), c.QueryParam("department"), c.QueryParam("state"))
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) PaginatedHandler(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return HandleError(c, err)
	}

	result, err := h.svc.ListPaginated(c.Request().Context(), page, size)
	if err != nil {
		return HandleError(c, err)
	}
	result.Data = nonNil(result.Data)
	return ResponseSuccess(c, http.StatusOK, "", result)
}

func (h *EmployeeV2Handler) CreateHandler(c echo.Context) error {
	var req domain.EmployeeInput
	if err := c.Bind(&req); err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusCreated, "Employee created successfully", emp)
}

func (h *EmployeeV2Handler) UpdateHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return HandleError(c, err)
	}

	var req domain.EmployeeInput
	if err := c.Bind(&req); err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, "Employee updated successfully", emp)
}

func (h *EmployeeV2Handler) DeleteHandler(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return HandleError(c, err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, "Employee deleted successfully", nil)
}

func (h *EmployeeV2Handler) SearchHandler(c echo.Context) error {
	employees, err := h.svc.SearchByName(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) AdvancedSearchHandler(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	employees, err := h.svc.AdvancedSearch(c.Request().Context(), req.Criteria)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) AdvancedSearchPaginatedHandler(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	result, err := h.svc.AdvancedSearchPaginated(c.Request().Context(), req.Criteria, req.Page, req.PageSize)
	if err != nil {
		return HandleError(c, err)
	}
	result.Data = nonNil(result.Data)
	return ResponseSuccess(c, http.StatusOK, "", result)
}

func (h *EmployeeV2Handler) SalaryRangeHandler(c echo.Context) error {
	min, max, err := salaryBounds(c)
	if err != nil {
		return HandleError(c, err)
	}

	employees, err := h.svc.SalaryRange(c.Request().Context(), min, max)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) TopEarnersHandler(c echo.Context) error {
	count, err := intQuery(c, "count", query.DefaultTopCount)
	if err != nil {
		return HandleError(c, err)
	}
	if !query.CountInRange(count) {
		return ResponseError(c, http.StatusBadRequest,
			fmt.Sprintf("Count must be between 1 and %d", query.MaxTopCount), nil)
	}

	employees, err := h.svc.TopEarners(c.Request().Context(), count)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) StatisticsHandler(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, "", stats)
}

func (h *EmployeeV2Handler) DepartmentsHandler(c echo.Context) error {
	departments, err := h.svc.Departments(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, departments)
}

func (h *EmployeeV2Handler) StatesHandler(c echo.Context) error {
	states, err := h.svc.States(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, states)
}

func (h *EmployeeV2Handler) EmailExistsHandler(c echo.Context) error {
	exists, err := h.svc.EmailExists(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, "", emailExists{EmailExists: exists})
}

func (h *EmployeeV2Handler) BulkDeleteHandler(c echo.Context) error {
	ids, err := bindIDs(c)
	if err != nil {
		return HandleError(c, err)
	}

	n, err := h.svc.BulkDelete(c.Request().Context(), ids)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, fmt.Sprintf("Successfully deleted %d employees", n), nil)
}

func (h *EmployeeV2Handler) BulkUpdateDepartmentHandler(c echo.Context) error {
	var req domain.BulkUpdateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	n, err := h.svc.BulkUpdateDepartment(c.Request().Context(), req)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseSuccess(c, http.StatusOK, fmt.Sprintf("Successfully updated department for %d employees", n), nil)
}

func (h *EmployeeV2Handler) ExportCSVHandler(c echo.Context) error {
	data, err := h.svc.ExportCSV(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return csvAttachment(c, data)
}

func (h *EmployeeV2Handler) ExportXLSXHandler(c echo.Context) error {
	data, err := h.svc.ExportXLSX(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="employees.xlsx"`)
	return c.Blob(http.StatusOK, mimeXLSX, data)
}

func (h *EmployeeV2Handler) CountByDepartmentHandler(c echo.Context) error {
	counts, err := h.svc.CountByDepartment(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, counts)
}

func (h *EmployeeV2Handler) FullTextSearchHandler(c echo.Context) error {
	limit, err := intQuery(c, "limit", query.DefaultTopCount)
	if err != nil {
		return HandleError(c, err)
	}

	employees, err := h.svc.FullTextSearch(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return HandleError(c, err)
	}
	return ResponseList(c, employees)
}

func (h *EmployeeV2Handler) HealthHandler(c echo.Context) error {
	return ResponseSuccess(c, http.StatusOK, "Employee Advanced API is running", healthStatus{Timestamp: h.now().UTC()})
}
