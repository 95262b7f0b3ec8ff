package builder

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderFormat controls how "?" markers are rendered in the final SQL.
type PlaceholderFormat int

const (
	// Dollar renders $1, $2, ... (PostgreSQL).
	Dollar PlaceholderFormat = iota
	// Question keeps the ? marker (SQLite).
	Question
)

// SQLBuilder helps construct SQL queries dynamically.
type SQLBuilder struct {
	format     PlaceholderFormat
	table      string
	columns    []string
	values     []interface{}
	joins      []string
	orderBy    []string
	groupBy    []string
	returning  []string
	limit      int
	offset     int
	updateCols []string
	updateArgs []interface{}
	isInsert   bool
	isUpdate   bool
	isDelete   bool
	isSelect   bool

	conditions   []condition
	orConditions []condition
}

// condition is a single WHERE fragment. When group is set the fragment is
// the parenthesized rendering of the nested builder.
type condition struct {
	sql   string
	args  []interface{}
	group *SQLBuilder
}

// NewSQLBuilder creates a new instance of SQLBuilder using $N placeholders.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// NewSQLBuilderWithFormat creates a builder rendering placeholders in the given format.
func NewSQLBuilderWithFormat(format PlaceholderFormat) *SQLBuilder {
	return &SQLBuilder{format: format}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Update specifies the table to update.
func (b *SQLBuilder) Update(table string) *SQLBuilder {
	b.isUpdate = true
	b.table = table
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.isDelete = true
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Set specifies the columns and values for update.
func (b *SQLBuilder) Set(col string, val interface{}) *SQLBuilder {
	b.updateCols = append(b.updateCols, col)
	b.updateArgs = append(b.updateArgs, val)
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// Returning adds a RETURNING clause to an INSERT, UPDATE or DELETE.
func (b *SQLBuilder) Returning(cols ...string) *SQLBuilder {
	b.returning = append(b.returning, cols...)
	return b
}

// Where adds a condition to the query. Conditions are combined with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.conditions = append(b.conditions, condition{sql: cond, args: args})
	return b
}

// WhereIn adds "col IN (?, ?, ...)". An empty value list matches nothing.
func (b *SQLBuilder) WhereIn(col string, vals ...interface{}) *SQLBuilder {
	if len(vals) == 0 {
		return b.Where("1 = 0")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	return b.Where(col+" IN ("+marks+")", vals...)
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// GroupBy adds a GROUP BY clause.
func (b *SQLBuilder) GroupBy(cols ...string) *SQLBuilder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// Or adds an alternative to the AND-ed block: (a AND b) OR cond.
func (b *SQLBuilder) Or(cond string, args ...interface{}) *SQLBuilder {
	b.orConditions = append(b.orConditions, condition{sql: cond, args: args})
	return b
}

// WhereGroup adds a grouped (parenthesized) WHERE condition.
// The provided function receives a new SQLBuilder for building the grouped conditions.
func (b *SQLBuilder) WhereGroup(fn func(*SQLBuilder) *SQLBuilder) *SQLBuilder {
	g := fn(NewSQLBuilder())
	if !g.hasWhere() {
		return b
	}
	b.conditions = append(b.conditions, condition{group: g})
	return b
}

// WhereRaw adds a raw SQL condition with arguments.
func (b *SQLBuilder) WhereRaw(sql string, args ...interface{}) *SQLBuilder {
	return b.Where(sql, args...)
}

// BuildSafe constructs the final SQL string and arguments with safety validation.
// Returns an error if the number of placeholders doesn't match the number of arguments.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	w := &argWriter{format: b.format}
	sql := b.build(w)
	if w.marks != len(w.args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", w.marks, len(w.args))
	}
	return sql, w.args, nil
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	w := &argWriter{format: b.format}
	return b.build(w), w.args
}

func (b *SQLBuilder) build(w *argWriter) string {
	var sb strings.Builder

	switch {
	case b.isSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join)
		}
	case b.isInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		marks := make([]string, len(b.values))
		for i, v := range b.values {
			marks[i] = w.render("?", []interface{}{v})
		}
		sb.WriteString(strings.Join(marks, ", "))
		sb.WriteString(")")
		b.writeReturning(&sb)
		return sb.String()
	case b.isUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		sets := make([]string, len(b.updateCols))
		for i, col := range b.updateCols {
			sets[i] = col + " = " + w.render("?", []interface{}{b.updateArgs[i]})
		}
		sb.WriteString(strings.Join(sets, ", "))
	case b.isDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if b.hasWhere() {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.renderWhere(w))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}

	b.writeReturning(&sb)
	return sb.String()
}

func (b *SQLBuilder) writeReturning(sb *strings.Builder) {
	if len(b.returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(b.returning, ", "))
	}
}

func (b *SQLBuilder) hasWhere() bool {
	return len(b.conditions) > 0 || len(b.orConditions) > 0
}

// renderWhere emits the AND-ed conditions followed by OR alternatives, numbering
// placeholders in the order the arguments appear.
func (b *SQLBuilder) renderWhere(w *argWriter) string {
	var and []string
	for _, c := range b.conditions {
		if c.group != nil {
			and = append(and, "("+c.group.renderWhere(w)+")")
			continue
		}
		and = append(and, w.render(c.sql, c.args))
	}

	var parts []string
	if len(and) > 0 {
		parts = append(parts, strings.Join(and, " AND "))
	}
	for _, c := range b.orConditions {
		parts = append(parts, w.render(c.sql, c.args))
	}
	return strings.Join(parts, " OR ")
}

type argWriter struct {
	format PlaceholderFormat
	args   []interface{}
	marks  int
}

func (w *argWriter) render(sql string, args []interface{}) string {
	w.args = append(w.args, args...)
	parts := strings.Split(sql, "?")
	if len(parts) == 1 {
		return sql
	}
	var sb strings.Builder
	for i, part := range parts {
		sb.WriteString(part)
		if i < len(parts)-1 {
			w.marks++
			if w.format == Question {
				sb.WriteString("?")
			} else {
				sb.WriteString("$" + strconv.Itoa(w.marks))
			}
		}
	}
	return sb.String()
}
