// Package xlsxexport renders slices of structs or maps into XLSX workbooks
// laid out by a YAML report template.
package xlsxexport

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultColumnWidth = 20
	defaultSheetName   = "Sheet1"
)

// Formatter converts a raw field value into the value written to the cell.
type Formatter func(interface{}) interface{}

// Exporter builds a workbook from a ReportTemplate and bound section data.
type Exporter struct {
	template   *ReportTemplate
	data       map[string]interface{}
	formatters map[string]Formatter
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate is one worksheet. Sections are stacked vertically with
// Spacing empty rows between them.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Spacing  int             `yaml:"spacing"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a block of rows bound to data by ID.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	ShowHeader  bool           `yaml:"show_header"`
	HasFilter   bool           `yaml:"has_filter"`
	FreezePanes bool           `yaml:"freeze_panes"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	DataStyle   *StyleTemplate `yaml:"data_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName     string  `yaml:"field_name"`
	Header        string  `yaml:"header"`
	Width         float64 `yaml:"width"`
	FormatterName string  `yaml:"formatter"`
	NumFmt        string  `yaml:"num_fmt"`
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"`
	Vertical   string `yaml:"vertical"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"`
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

// NewFromYAML parses a report template.
func NewFromYAML(yamlConfig []byte) (*Exporter, error) {
	if len(bytes.TrimSpace(yamlConfig)) == 0 {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal(yamlConfig, &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("template defines no sheets")
	}
	return &Exporter{
		template:   &tmpl,
		data:       make(map[string]interface{}),
		formatters: make(map[string]Formatter),
	}, nil
}

// BindSectionData binds a slice of structs or maps to a section ID.
func (e *Exporter) BindSectionData(id string, data interface{}) *Exporter {
	e.data[id] = data
	return e
}

// RegisterFormatter makes f available to columns under name.
func (e *Exporter) RegisterFormatter(name string, f Formatter) *Exporter {
	e.formatters[name] = f
	return e
}

// Build renders every sheet of the template.
func (e *Exporter) Build() (*excelize.File, error) {
	f := excelize.NewFile()
	for i, sheet := range e.template.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(defaultSheetName, name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}

		row := 1
		for j := range sheet.Sections {
			next, err := e.renderSection(f, name, &sheet.Sections[j], row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("render section %q: %w", sheet.Sections[j].ID, err)
			}
			row = next + sheet.Spacing
		}
	}
	return f, nil
}

// ToBytes exports the workbook to an in-memory byte slice.
func (e *Exporter) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.ToWriter(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter exports the workbook directly to a writer.
func (e *Exporter) ToWriter(w io.Writer) error {
	f, err := e.Build()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// renderSection writes sec starting at row and returns the first free row after it.
func (e *Exporter) renderSection(f *excelize.File, sheet string, sec *SectionConfig, row int) (int, error) {
	items := rows(e.data[sec.ID])
	cols := sec.Columns
	if len(cols) == 0 && len(items) > 0 {
		cols = detectColumns(items[0])
	}
	if len(cols) == 0 {
		return row, nil
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))

	if sec.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
			return row, err
		}
		if len(cols) > 1 {
			if err := f.MergeCell(sheet, cell, fmt.Sprintf("%s%d", lastCol, row)); err != nil {
				return row, err
			}
		}
		if err := applyStyle(f, sheet, sec.TitleStyle, nil, row, 1, row, 1); err != nil {
			return row, err
		}
		row++
	}

	headerRow := 0
	if sec.ShowHeader {
		headerRow = row
		for i, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			header := col.Header
			if header == "" {
				header = col.FieldName
			}
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return row, err
			}
		}
		if err := applyStyle(f, sheet, sec.HeaderStyle, nil, row, 1, row, len(cols)); err != nil {
			return row, err
		}
		row++
	}

	firstData := row
	for _, item := range items {
		for i, col := range cols {
			val := extractValue(item, col.FieldName)
			if fn, ok := e.formatters[col.FormatterName]; ok {
				val = fn(val)
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return row, err
			}
		}
		row++
	}

	for i, col := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := col.Width
		if width <= 0 {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return row, err
		}
		if len(items) > 0 {
			numFmt := col.NumFmt
			if err := applyStyle(f, sheet, sec.DataStyle, &numFmt, firstData, i+1, row-1, i+1); err != nil {
				return row, err
			}
		}
	}

	if headerRow > 0 && sec.HasFilter {
		rng := fmt.Sprintf("A%d:%s%d", headerRow, lastCol, max(row-1, headerRow))
		if err := f.AutoFilter(sheet, rng, nil); err != nil {
			return row, err
		}
	}
	if headerRow > 0 && sec.FreezePanes {
		topLeft, _ := excelize.CoordinatesToCellName(1, headerRow+1)
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return row, err
		}
	}
	return row, nil
}

func applyStyle(f *excelize.File, sheet string, tmpl *StyleTemplate, numFmt *string, r1, c1, r2, c2 int) error {
	hasFmt := numFmt != nil && *numFmt != ""
	if tmpl == nil && !hasFmt {
		return nil
	}
	style := newStyle(tmpl)
	if hasFmt {
		style.CustomNumFmt = numFmt
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return err
	}
	from, _ := excelize.CoordinatesToCellName(c1, r1)
	to, _ := excelize.CoordinatesToCellName(c2, r2)
	return f.SetCellStyle(sheet, from, to, id)
}

func newStyle(tmpl *StyleTemplate) *excelize.Style {
	style := &excelize.Style{}
	if tmpl == nil {
		return style
	}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
		}
	}
	return style
}

// rows flattens a slice (or pointer to slice) into its elements.
func rows(data interface{}) []reflect.Value {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return []reflect.Value{v}
	}
	out := make([]reflect.Value, v.Len())
	for i := range out {
		item := v.Index(i)
		if item.Kind() == reflect.Ptr {
			item = item.Elem()
		}
		out[i] = item
	}
	return out
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(fieldName); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		keyType := item.Type().Key()
		if keyType.Kind() != reflect.String {
			return ""
		}
		if val := item.MapIndex(reflect.ValueOf(fieldName).Convert(keyType)); val.IsValid() {
			return val.Interface()
		}
	}
	return ""
}

// detectColumns derives one column per exported struct field, or one per
// string key of a map in key order.
func detectColumns(item reflect.Value) []ColumnConfig {
	switch item.Kind() {
	case reflect.Struct:
		t := item.Type()
		var cols []ColumnConfig
		for i := 0; i < t.NumField(); i++ {
			if field := t.Field(i); field.PkgPath == "" {
				cols = append(cols, ColumnConfig{FieldName: field.Name, Header: field.Name})
			}
		}
		return cols
	case reflect.Map:
		if item.Type().Key().Kind() != reflect.String {
			return nil
		}
		keys := make([]string, 0, item.Len())
		for _, k := range item.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		cols := make([]ColumnConfig, len(keys))
		for i, k := range keys {
			cols[i] = ColumnConfig{FieldName: k, Header: k}
		}
		return cols
	}
	return nil
}
