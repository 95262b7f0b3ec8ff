package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Response is the envelope returned by every JSON endpoint of the v2 API.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// ResponseSuccess writes a successful envelope.
func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// ResponseList writes a successful envelope carrying a slice and its length.
func ResponseList[T any](c echo.Context, data []T) error {
	if data == nil {
		data = []T{}
	}
	n := len(data)
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Count: &n})
}

// ResponseError writes a failed envelope. Field errors are copied from a
// ValidationError; any other err is logged.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := Response{Success: false, Message: message}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	} else if err != nil && status >= http.StatusInternalServerError {
		logger.ErrorLog(c.Request().Context(), err, "%s", message)
	}
	return c.JSON(status, resp)
}

// HandleError maps err onto the envelope with its status code.
func HandleError(c echo.Context, err error) error {
	status, message := classify(err)
	return ResponseError(c, status, message, err)
}

// classify maps a service error to a status code and a caller-facing message.
func classify(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Employee not found"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, "Full-text search is unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, invalidParam("id", "must be an integer")
	}
	return id, nil
}

// intQuery parses an optional integer query parameter.
func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, "must be an integer")
	}
	return n, nil
}

// decimalQuery parses an optional decimal query parameter; nil when absent.
func decimalQuery(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidParam(name, "must be a number")
	}
	return &d, nil
}

// salaryBounds reads the required minSalary and maxSalary parameters.
func salaryBounds(c echo.Context) (decimal.Decimal, decimal.Decimal, error) {
	min, err := decimalQuery(c, "minSalary")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	max, err := decimalQuery(c, "maxSalary")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	var missing []domain.FieldError
	if min == nil {
		missing = append(missing, domain.FieldError{Field: "minSalary", Error: "is required"})
	}
	if max == nil {
		missing = append(missing, domain.FieldError{Field: "maxSalary", Error: "is required"})
	}
	if len(missing) > 0 {
		return decimal.Zero, decimal.Zero, domain.NewValidationError("Salary range is required", missing...)
	}
	return *min, *max, nil
}

// bindIDs decodes a JSON array of employee ids from the request body.
func bindIDs(c echo.Context) ([]int, error) {
	var ids []int
	if err := (&echo.DefaultBinder{}).BindBody(c, &ids); err != nil {
		return nil, invalidParam("body", "must be a JSON array of employee ids")
	}
	return ids, nil
}

func invalidParam(field, msg string) error {
	return domain.NewValidationError("Invalid request", domain.FieldError{Field: field, Error: msg})
}

func csvAttachment(c echo.Context, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="employees.csv"`)
	return c.Blob(http.StatusOK, mimeCSV, data)
}
