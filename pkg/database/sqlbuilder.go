package database

import (
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/record"
)

// stmtBuilder accumulates SQL text and positional arguments, numbering
// placeholders through the adapter's dialect.
type stmtBuilder struct {
	sb          strings.Builder
	args        []any
	placeholder func(int) string
	quote       func(string) string
	equal       func(column string, ft core.FieldType, placeholder string) string
}

func (b *stmtBuilder) write(parts ...string) *stmtBuilder {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
	return b
}

func (b *stmtBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return b.placeholder(len(b.args))
}

// columnList writes the quoted column names separated by commas.
func (b *stmtBuilder) columnList(columns []core.Column) *stmtBuilder {
	for i, c := range columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(b.quote(c.Name))
	}
	return b
}

// assignments writes "col = ?" pairs for SET clauses. A NULL field binds
// a NULL argument.
func (b *stmtBuilder) assignments(cols []core.Column, fields []*record.FieldValue) *stmtBuilder {
	for i, f := range fields {
		if i > 0 {
			b.write(", ")
		}
		b.write(b.quote(cols[i].Name), " = ", b.bind(argValue(f)))
	}
	return b
}

// where writes a WHERE clause ANDing one equality per field, or nothing
// for an empty list. NULL fields match with IS NULL; other comparisons
// follow the adapter's EqualExpr.
func (b *stmtBuilder) where(cols []core.Column, fields []*record.FieldValue) *stmtBuilder {
	for i, f := range fields {
		if i == 0 {
			b.write(" WHERE ")
		} else {
			b.write(" AND ")
		}
		if f.IsNull() {
			b.write(b.quote(cols[i].Name), " IS NULL")
			continue
		}
		b.write(b.equal(b.quote(cols[i].Name), cols[i].FieldType, b.bind(argValue(f))))
	}
	return b
}

// orderBy writes an ORDER BY over the given columns, or nothing.
func (b *stmtBuilder) orderBy(cols []core.Column) *stmtBuilder {
	if len(cols) == 0 {
		return b
	}
	b.write(" ORDER BY ")
	return b.columnList(cols)
}

func (b *stmtBuilder) String() string {
	return b.sb.String()
}

func argValue(f *record.FieldValue) any {
	v, _ := f.Value()
	return v
}
