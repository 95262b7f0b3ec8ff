package xlsxexport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type row struct {
	Name   string
	Amount float64
	secret string
}

const reportYAML = `
sheets:
  - name: Report
    spacing: 1
    sections:
      - id: people
        title: People
        show_header: true
        has_filter: true
        freeze_panes: true
        header_style:
          font: { bold: true, color: "#FFFFFF" }
          fill: { color: "#4F81BD" }
        columns:
          - field_name: Name
            header: Full Name
            width: 30
          - field_name: Amount
            header: Amount
            formatter: double
            num_fmt: "#,##0.00"
      - id: totals
        show_header: true
`

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExportFromYAML(t *testing.T) {
	exp, err := NewFromYAML([]byte(reportYAML))
	require.NoError(t, err)

	exp.RegisterFormatter("double", func(v interface{}) interface{} {
		return v.(float64) * 2
	})
	exp.BindSectionData("people", []row{{Name: "Alice", Amount: 1.5}, {Name: "Bob", Amount: 2}})
	exp.BindSectionData("totals", []map[string]interface{}{{"Total": 2}})

	data, err := exp.ToBytes()
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"Report"}, f.GetSheetList())

	cell := func(ref string) string {
		v, err := f.GetCellValue("Report", ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "People", cell("A1"))
	assert.Equal(t, "Full Name", cell("A2"))
	assert.Equal(t, "Amount", cell("B2"))
	assert.Equal(t, "Alice", cell("A3"))
	assert.Equal(t, "Bob", cell("A4"))

	raw, err := f.GetCellValue("Report", "B3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "3", raw)

	// one spacer row, then the detected-column totals section
	assert.Equal(t, "Total", cell("A6"))
	assert.Equal(t, "2", cell("A7"))

	width, err := f.GetColWidth("Report", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(30), width)
}

func TestDetectColumnsSkipsUnexported(t *testing.T) {
	exp, err := NewFromYAML([]byte("sheets:\n  - name: S\n    sections:\n      - id: rows\n        show_header: true\n"))
	require.NoError(t, err)
	exp.BindSectionData("rows", []*row{{Name: "A", secret: "x"}})

	var buf bytes.Buffer
	require.NoError(t, exp.ToWriter(&buf))

	f := open(t, buf.Bytes())
	headers, err := f.GetRows("S")
	require.NoError(t, err)
	require.NotEmpty(t, headers)
	assert.Equal(t, []string{"Name", "Amount"}, headers[0])
}

func TestNewFromYAMLErrors(t *testing.T) {
	_, err := NewFromYAML(nil)
	assert.Error(t, err)

	_, err = NewFromYAML([]byte("sheets: []"))
	assert.Error(t, err)

	_, err = NewFromYAML([]byte("sheets: [unterminated"))
	assert.Error(t, err)
}

func TestDetectColumnsFromMapKeys(t *testing.T) {
	exp, err := NewFromYAML([]byte("sheets:\n  - name: S\n    sections:\n      - id: rows\n        show_header: true\n"))
	require.NoError(t, err)
	exp.BindSectionData("rows", []map[string]interface{}{
		{"state": "CA", "count": 3, "department": "IT"},
		{"state": "NY", "count": 1, "department": "HR"},
	})

	data, err := exp.ToBytes()
	require.NoError(t, err)

	rows, err := open(t, data).GetRows("S")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"count", "department", "state"}, rows[0])
	assert.Equal(t, []string{"3", "IT", "CA"}, rows[1])
	assert.Equal(t, []string{"1", "HR", "NY"}, rows[2])
}
