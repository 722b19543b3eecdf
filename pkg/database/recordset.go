package database

import (
	"database/sql"
	"iter"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/record"
)

// scanFunc builds a record from the row the cursor is on.
type scanFunc func() (*record.Record, error)

// RecordSet is a forward-only, single-pass cursor over query results. It
// is positioned on the first row when returned. The engine rows are
// released when the cursor runs off the end, on Count, on the first error
// and on Close; a record set cannot be restarted.
type RecordSet struct {
	rows    *sql.Rows
	scan    scanFunc
	columns []string

	current *record.Record
	buffer  []*record.Record
	passed  int
	err     error
}

func newRecordSet(rows *core.Rows, scan scanFunc) *RecordSet {
	rs := &RecordSet{rows: rows.Rows, scan: scan}
	rs.columns, rs.err = rows.Columns()
	if rs.err != nil {
		rs.release()
		return rs
	}
	rs.advance()
	return rs
}

// Columns returns the result column names.
func (rs *RecordSet) Columns() []string {
	return rs.columns
}

// Valid reports whether the cursor is on a record.
func (rs *RecordSet) Valid() bool {
	return rs.current != nil
}

// Current returns the record under the cursor, or nil when the cursor is
// not valid.
func (rs *RecordSet) Current() *record.Record {
	return rs.current
}

// Next moves to the following record and reports whether the cursor is
// still valid. Calling Next on an invalid cursor is a no-op.
func (rs *RecordSet) Next() bool {
	if rs.current == nil {
		return false
	}
	rs.passed++
	rs.advance()
	return rs.current != nil
}

// Count returns the total number of records in the result: records already
// passed, the current one and all remaining ones. Remaining rows are read
// into memory, so the cursor keeps working after Count.
func (rs *RecordSet) Count() (int, error) {
	for rs.rows != nil {
		rec, ok := rs.fetch()
		if !ok {
			break
		}
		rs.buffer = append(rs.buffer, rec)
	}
	if rs.err != nil {
		return 0, rs.err
	}
	n := rs.passed + len(rs.buffer)
	if rs.current != nil {
		n++
	}
	return n, nil
}

// Err returns the error, if any, that stopped the cursor.
func (rs *RecordSet) Err() error {
	return rs.err
}

// Close releases the engine rows. It is safe to call more than once.
func (rs *RecordSet) Close() error {
	rs.current = nil
	rs.buffer = nil
	if rs.rows == nil {
		return nil
	}
	err := rs.rows.Close()
	rs.rows = nil
	return err
}

// All yields every remaining record, starting with the current one, and
// releases the cursor when done or when the loop breaks early. A cursor
// error is yielded last.
func (rs *RecordSet) All() iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		defer func() { _ = rs.Close() }()
		for rs.current != nil {
			if !yield(rs.current, nil) {
				return
			}
			rs.Next()
		}
		if rs.err != nil {
			yield(nil, rs.err)
		}
	}
}

func (rs *RecordSet) advance() {
	if len(rs.buffer) > 0 {
		rs.current = rs.buffer[0]
		rs.buffer = rs.buffer[1:]
		return
	}
	rs.current = nil
	if rs.rows == nil {
		return
	}
	if rec, ok := rs.fetch(); ok {
		rs.current = rec
	}
}

// fetch reads the next engine row. It releases the rows on exhaustion
// and on error.
func (rs *RecordSet) fetch() (*record.Record, bool) {
	if !rs.rows.Next() {
		if err := rs.rows.Err(); err != nil {
			rs.err = errors.Wrap(err, "failed to read row")
		}
		rs.release()
		return nil, false
	}
	rec, err := rs.scan()
	if err != nil {
		rs.err = err
		rs.release()
		return nil, false
	}
	return rec, true
}

func (rs *RecordSet) release() {
	if rs.rows != nil {
		_ = rs.rows.Close()
		rs.rows = nil
	}
}

// TableRecordSet is a RecordSet whose records carry a table's schema.
type TableRecordSet struct {
	*RecordSet
	table *Table
}

// Table returns the table the records belong to.
func (ts *TableRecordSet) Table() *Table {
	return ts.table
}

// tableScanner scans rows selected in schema column order into typed
// fields.
func tableScanner(rows *sql.Rows, columns []core.Column) scanFunc {
	return func() (*record.Record, error) {
		fields := make([]*record.FieldValue, len(columns))
		dest := make([]any, len(columns))
		for i, c := range columns {
			fields[i] = record.NewFieldValue(c.Name, c.FieldType)
			dest[i] = fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		return record.NewRecord(fields...)
	}
}

// queryScanner scans rows of an arbitrary query. Columns with a declared
// type are converted to it when possible; other cells keep the type the
// driver returned.
func queryScanner(rows *sql.Rows) scanFunc {
	var (
		names []string
		types []*core.FieldType
	)
	setup := func() error {
		cts, err := rows.ColumnTypes()
		if err != nil {
			return errors.Wrap(err, "failed to read column types")
		}
		names = uniqueNames(cts)
		types = make([]*core.FieldType, len(cts))
		for i, ct := range cts {
			if decl := ct.DatabaseTypeName(); decl != "" {
				ft := core.ParseFieldType(decl)
				types[i] = &ft
			}
		}
		return nil
	}

	return func() (*record.Record, error) {
		if names == nil {
			if err := setup(); err != nil {
				return nil, err
			}
		}
		raw := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		fields := make([]*record.FieldValue, len(names))
		for i, v := range raw {
			if types[i] != nil {
				f := record.NewFieldValue(names[i], *types[i])
				if err := f.Scan(v); err == nil {
					fields[i] = f
					continue
				}
			}
			fields[i] = record.NewFieldValueFromSQL(names[i], v)
		}
		return record.NewRecord(fields...)
	}
}

// uniqueNames returns the column names, suffixing repeats with the first
// free _2, _3... that no other result column uses.
func uniqueNames(cts []*sql.ColumnType) []string {
	raw := make([]string, len(cts))
	for i, ct := range cts {
		raw[i] = ct.Name()
	}
	return dedupeNames(raw)
}

func dedupeNames(raw []string) []string {
	reserved := make(map[string]bool, len(raw))
	for _, name := range raw {
		reserved[strings.ToLower(name)] = true
	}

	names := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int)
	for i, name := range raw {
		key := strings.ToLower(name)
		if !used[key] {
			used[key] = true
			names[i] = name
			continue
		}
		n := max(next[key], 2)
		for {
			cand := name + "_" + strconv.Itoa(n)
			ck := strings.ToLower(cand)
			n++
			if !used[ck] && !reserved[ck] {
				used[ck] = true
				names[i] = cand
				break
			}
		}
		next[key] = n
	}
	return names
}
