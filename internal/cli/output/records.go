package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/leapstack-labs/leapdb/pkg/record"
)

// RenderRecordSet drains rs and renders every record. The record set is
// closed on return.
func (r *Renderer) RenderRecordSet(rs *database.RecordSet) error {
	defer func() { _ = rs.Close() }()

	var recs []*record.Record
	for rec, err := range rs.All() {
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return r.RenderRecords(rs.Columns(), recs)
}

// RenderRecords renders records under the given column names.
func (r *Renderer) RenderRecords(columns []string, recs []*record.Record) error {
	if r.mode == ModeJSON {
		out := make([]map[string]any, len(recs))
		for i, rec := range recs {
			out[i] = recordMap(rec)
		}
		return r.JSON(out)
	}

	if len(recs) == 0 && r.mode != ModeCSV {
		r.Println("(0 rows)")
		return nil
	}

	t := r.newTable()
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, rec := range recs {
		fields := rec.Fields()
		row := make(table.Row, len(fields))
		for i, f := range fields {
			row[i] = f.String()
		}
		t.AppendRow(row)
	}
	r.renderTable(t)

	if r.mode == ModeTable {
		r.Printf("(%d rows)\n", len(recs))
	}
	return nil
}

// RenderRecord renders a single record as column/value pairs.
func (r *Renderer) RenderRecord(rec *record.Record) error {
	if r.mode == ModeJSON {
		return r.JSON(recordMap(rec))
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"Column", "Type", "Value"})
	for _, f := range rec.Fields() {
		t.AppendRow(table.Row{f.Name(), f.Type().String(), f.String()})
	}
	r.renderTable(t)
	return nil
}

// RenderNames renders a one-column list, e.g. table names.
func (r *Renderer) RenderNames(title string, names []string) error {
	if r.mode == ModeJSON {
		if names == nil {
			names = []string{}
		}
		return r.JSON(names)
	}
	t := r.newTable()
	t.AppendHeader(table.Row{title})
	for _, n := range names {
		t.AppendRow(table.Row{n})
	}
	r.renderTable(t)
	return nil
}

// RenderAffected reports the row count of an operation.
func (r *Renderer) RenderAffected(n int64) error {
	if r.mode == ModeJSON {
		return r.JSON(map[string]int64{"rows_affected": n})
	}
	r.Success(fmt.Sprintf("%d row(s) affected", n))
	return nil
}

// columnInfo is the JSON shape of a column in schema output.
type columnInfo struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	FieldType  string  `json:"field_type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Indexed    bool    `json:"indexed"`
	Default    *string `json:"default,omitempty"`
}

type schemaOutput struct {
	Name    string       `json:"name"`
	Columns []columnInfo `json:"columns"`
	Indexes []string     `json:"indexes"`
}

// RenderSchema renders a table's columns and indexes.
func (r *Renderer) RenderSchema(tbl *database.Table) error {
	cols := tbl.Columns()
	if r.mode == ModeJSON {
		out := schemaOutput{Name: tbl.Name(), Indexes: tbl.Indexes()}
		if out.Indexes == nil {
			out.Indexes = []string{}
		}
		for _, c := range cols {
			out.Columns = append(out.Columns, columnInfo{
				Name:       c.Name,
				Type:       c.Type,
				FieldType:  c.FieldType.String(),
				Nullable:   c.Nullable,
				PrimaryKey: c.PrimaryKey,
				Indexed:    c.Indexed,
				Default:    c.Default,
			})
		}
		return r.JSON(out)
	}

	r.Header(1, "Table: "+tbl.Name())
	t := r.newTable()
	t.AppendHeader(table.Row{"Column", "Type", "Field Type", "Nullable", "Key", "Default"})
	for _, c := range cols {
		t.AppendRow(table.Row{c.Name, c.Type, c.FieldType.String(), yesNo(c.Nullable), keyMarker(c), defaultText(c)})
	}
	r.renderTable(t)

	if idx := tbl.Indexes(); len(idx) > 0 {
		r.Println()
		r.Header(2, "Indexes")
		for _, name := range idx {
			r.Println("  " + name)
		}
	}
	return nil
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	return t
}

func (r *Renderer) renderTable(t table.Writer) {
	switch r.mode {
	case ModeCSV:
		t.RenderCSV()
	case ModeMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
	}
}

func recordMap(rec *record.Record) map[string]any {
	m := make(map[string]any, rec.Len())
	for _, f := range rec.Fields() {
		v, _ := f.Value()
		m[f.Name()] = v
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func keyMarker(c core.Column) string {
	var parts []string
	if c.PrimaryKey {
		parts = append(parts, "PK")
	}
	if c.Indexed && !c.PrimaryKey {
		parts = append(parts, "IDX")
	}
	return strings.Join(parts, ",")
}

func defaultText(c core.Column) string {
	if c.Default == nil {
		return ""
	}
	return *c.Default
}
