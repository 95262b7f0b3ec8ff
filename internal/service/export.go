package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/locvowork/employee_records/internal/query"
	"github.com/locvowork/employee_records/pkg/xlsxexport"
	"github.com/shopspring/decimal"
)

//go:embed templates/employee_report.yaml
var employeeReportTemplate []byte

var csvHeader = []string{
	"Id", "EmployeeName", "Email", "Department", "Salary",
	"Address1", "Address2", "Address3", "State", "District", "Pincode",
}

// ExportCSV renders every employee as RFC 4180 CSV with a header row.
func (s *EmployeeService) ExportCSV(ctx context.Context) ([]byte, error) {
	employees, err := s.repo.Find(ctx, query.Spec{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range employees {
		record := []string{
			strconv.Itoa(e.ID), e.EmployeeName, e.Email, e.Department, e.Salary.StringFixed(2),
			e.Address1, e.Address2, e.Address3, e.State, e.District, e.Pincode,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row %d: %w", e.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders every employee plus a department head count into a workbook.
func (s *EmployeeService) ExportXLSX(ctx context.Context) ([]byte, error) {
	employees, err := s.repo.Find(ctx, query.Spec{})
	if err != nil {
		return nil, err
	}
	byDept, err := s.repo.CountBy(ctx, query.FieldDepartment, query.ByCountDesc)
	if err != nil {
		return nil, err
	}

	exp, err := xlsxexport.NewFromYAML(employeeReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to load report template: %w", err)
	}
	exp.RegisterFormatter("money", func(v interface{}) interface{} {
		if d, ok := v.(decimal.Decimal); ok {
			f, _ := d.Round(2).Float64()
			return f
		}
		return v
	})
	exp.BindSectionData("employees", employees).
		BindSectionData("departments", byDept)

	data, err := exp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	return data, nil
}
