package database

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/record"
)

// Table is a typed handle on one engine table. Its schema is read once,
// when the handle is created.
type Table struct {
	db      *Database
	meta    core.TableMetadata
	columns []core.Column
	pk      []core.Column
	index   map[string]int
	logger  *slog.Logger
}

func newTable(db *Database, meta *core.TableMetadata) *Table {
	t := &Table{
		db:      db,
		meta:    *meta,
		columns: meta.Columns,
		pk:      meta.PrimaryKey(),
		index:   make(map[string]int, len(meta.Columns)),
		logger:  db.logger.With(slog.String("table", meta.Name)),
	}
	for i, c := range meta.Columns {
		t.index[strings.ToLower(c.Name)] = i
	}
	return t
}

// Name returns the table name as spelled in the catalog.
func (t *Table) Name() string {
	return t.meta.Name
}

// Columns returns the schema in column order.
func (t *Table) Columns() []core.Column {
	out := make([]core.Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// PrimaryKeyColumns returns the primary-key columns in column order.
func (t *Table) PrimaryKeyColumns() []core.Column {
	out := make([]core.Column, len(t.pk))
	copy(out, t.pk)
	return out
}

// Indexes returns the index names read with the schema.
func (t *Table) Indexes() []string {
	return append([]string(nil), t.meta.Indexes...)
}

// Column returns the named column.
func (t *Table) Column(name string) (core.Column, error) {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return core.Column{}, errors.Wrapf(record.ErrFieldNotFound, "table %s has no column %q", t.meta.Name, name)
	}
	return t.columns[i], nil
}

func (t *Table) quoted() string {
	return t.db.adapter.QuoteIdentifier(t.meta.Name)
}

func (t *Table) builder() *stmtBuilder {
	return &stmtBuilder{
		placeholder: t.db.adapter.Placeholder,
		quote:       t.db.adapter.QuoteIdentifier,
		equal:       t.db.adapter.EqualExpr,
	}
}

// NewRecord returns a record with every column of the table, in column
// order. Fields are NULL except where the column has a literal default.
func (t *Table) NewRecord() *record.Record {
	fields := make([]*record.FieldValue, len(t.columns))
	for i, c := range t.columns {
		f := record.NewFieldValue(c.Name, c.FieldType)
		if c.Default != nil {
			if lit, ok := defaultLiteral(*c.Default); ok {
				if err := f.Parse(lit); err != nil {
					t.logger.Debug("ignoring column default",
						slog.String("column", c.Name), slog.String("default", *c.Default))
				}
			}
		}
		fields[i] = f
	}
	// column names are unique in a catalog
	rec, _ := record.NewRecord(fields...)
	return rec
}

// NewPrimaryKey returns a primary-key value with a NULL field per key
// column.
func (t *Table) NewPrimaryKey() (*record.PrimaryKeyValue, error) {
	if len(t.pk) == 0 {
		return nil, errors.Wrapf(ErrNoPrimaryKey, "table %s", t.meta.Name)
	}
	fields := make([]*record.FieldValue, len(t.pk))
	for i, c := range t.pk {
		fields[i] = record.NewFieldValue(c.Name, c.FieldType)
	}
	return record.NewPrimaryKeyValue(fields...)
}

// CopyRecord returns a deep copy of rec.
func (t *Table) CopyRecord(rec *record.Record) *record.Record {
	return rec.Clone()
}

// resolve checks a field list against the schema: no repeated names, every
// name a column, every field typed like its column. It returns the matching
// columns in list order.
func (t *Table) resolve(fields []*record.FieldValue) ([]core.Column, error) {
	cols := make([]core.Column, len(fields))
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f == nil {
			return nil, errors.Newf("field %d is nil", i)
		}
		key := strings.ToLower(f.Name())
		if seen[key] {
			return nil, errors.Wrapf(record.ErrDuplicateField, "field %q", f.Name())
		}
		seen[key] = true

		c, err := t.Column(f.Name())
		if err != nil {
			return nil, err
		}
		if c.FieldType != f.Type() {
			return nil, errors.Wrapf(record.ErrTypeMismatch,
				"field %q is %s, column %s.%s is %s", f.Name(), f.Type(), t.meta.Name, c.Name, c.FieldType)
		}
		cols[i] = c
	}
	return cols, nil
}

// keyFields checks that fields cover exactly the primary key.
func (t *Table) keyFields(fields []*record.FieldValue) ([]core.Column, error) {
	if len(t.pk) == 0 {
		return nil, errors.Wrapf(ErrNoPrimaryKey, "table %s", t.meta.Name)
	}
	cols, err := t.resolve(fields)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if !c.PrimaryKey {
			return nil, errors.Wrapf(record.ErrFieldNotFound, "%q is not a primary key column of %s", c.Name, t.meta.Name)
		}
	}
	if len(cols) != len(t.pk) {
		return nil, errors.Wrapf(record.ErrFieldNotFound,
			"primary key of %s has %d fields, got %d", t.meta.Name, len(t.pk), len(cols))
	}
	return cols, nil
}

// splitKey separates a record's fields into primary-key and other fields.
func (t *Table) splitKey(rec *record.Record) (keyCols []core.Column, key []*record.FieldValue, cols []core.Column, rest []*record.FieldValue, err error) {
	if len(t.pk) == 0 {
		return nil, nil, nil, nil, errors.Wrapf(ErrNoPrimaryKey, "table %s", t.meta.Name)
	}
	fields := rec.Fields()
	all, err := t.resolve(fields)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	for i, c := range all {
		if c.PrimaryKey {
			keyCols = append(keyCols, c)
			key = append(key, fields[i])
		} else {
			cols = append(cols, c)
			rest = append(rest, fields[i])
		}
	}
	if len(keyCols) != len(t.pk) {
		return nil, nil, nil, nil, errors.Wrapf(record.ErrFieldNotFound,
			"record lacks primary key fields of %s", t.meta.Name)
	}
	return keyCols, key, cols, rest, nil
}

func (t *Table) selectWhere(ctx context.Context, cols []core.Column, conds []*record.FieldValue) (*TableRecordSet, error) {
	b := t.builder()
	b.write("SELECT ").columnList(t.columns).write(" FROM ", t.quoted()).
		where(cols, conds).orderBy(t.pk)
	return t.selectSQL(ctx, b.String(), b.args...)
}

func (t *Table) selectSQL(ctx context.Context, sqlText string, args ...any) (*TableRecordSet, error) {
	rows, err := t.db.query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return &TableRecordSet{
		RecordSet: newRecordSet(rows, tableScanner(rows.Rows, t.columns)),
		table:     t,
	}, nil
}

// RecordByPrimaryKey returns the row addressed by pk, or (nil, nil) when
// no row matches.
func (t *Table) RecordByPrimaryKey(ctx context.Context, pk *record.PrimaryKeyValue) (*record.Record, error) {
	if pk == nil || pk.Record == nil {
		return nil, errors.New("primary key value is nil")
	}
	fields := pk.Fields()
	cols, err := t.keyFields(fields)
	if err != nil {
		return nil, err
	}

	rs, err := t.selectWhere(ctx, cols, fields)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rs.Close() }()

	if rec := rs.Current(); rec != nil {
		return rec, nil
	}
	return nil, rs.Err()
}

// AllRecords returns a cursor over every row, ordered by primary key.
func (t *Table) AllRecords(ctx context.Context) (*TableRecordSet, error) {
	return t.selectWhere(ctx, nil, nil)
}

// FilterRecordsByFields returns a cursor over the rows whose columns equal
// every condition field. An empty condition list matches every row.
func (t *Table) FilterRecordsByFields(ctx context.Context, conditions []*record.FieldValue) (*TableRecordSet, error) {
	cols, err := t.resolve(conditions)
	if err != nil {
		return nil, err
	}
	return t.selectWhere(ctx, cols, conditions)
}

// FilterRecordsByCondition returns a cursor over the rows matching a raw
// SQL boolean expression. Bind markers in where follow the engine dialect.
func (t *Table) FilterRecordsByCondition(ctx context.Context, where string, args ...any) (*TableRecordSet, error) {
	b := t.builder()
	b.write("SELECT ").columnList(t.columns).write(" FROM ", t.quoted())
	if strings.TrimSpace(where) != "" {
		b.write(" WHERE ", where)
	}
	b.orderBy(t.pk)
	return t.selectSQL(ctx, b.String(), args...)
}

// RecordsCount returns the number of rows in the table.
func (t *Table) RecordsCount(ctx context.Context) (int64, error) {
	var n int64
	if err := t.scalar(ctx, "SELECT COUNT(*) FROM "+t.quoted(), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// MaxFieldValue returns the largest value of an int column, or 0 when the
// table is empty or the column holds only NULLs.
func (t *Table) MaxFieldValue(ctx context.Context, field string) (int64, error) {
	c, err := t.Column(field)
	if err != nil {
		return 0, err
	}
	if c.FieldType != core.FieldTypeInt {
		return 0, errors.Wrapf(record.ErrTypeMismatch, "column %s.%s is %s, not int", t.meta.Name, c.Name, c.FieldType)
	}
	var n sql.NullInt64
	q := "SELECT MAX(" + t.db.adapter.QuoteIdentifier(c.Name) + ") FROM " + t.quoted()
	if err := t.scalar(ctx, q, &n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

func (t *Table) scalar(ctx context.Context, q string, dest any) error {
	rows, err := t.db.query(ctx, q)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return &QueryError{SQL: q, Err: err}
		}
		return nil
	}
	if err := rows.Scan(dest); err != nil {
		return errors.Wrap(err, "failed to scan result")
	}
	return rows.Err()
}

// UpdateRecord writes every non-key field of rec to the row addressed by
// rec's key fields and returns the affected row count, 0 when no row has
// that key.
func (t *Table) UpdateRecord(ctx context.Context, rec *record.Record) (int64, error) {
	if rec == nil {
		return 0, errors.New("record is nil")
	}
	keyCols, key, cols, rest, err := t.splitKey(rec)
	if err != nil {
		return 0, err
	}
	if len(rest) == 0 {
		return 0, errors.Wrapf(ErrNoFields, "record has only key fields of %s", t.meta.Name)
	}

	b := t.builder()
	b.write("UPDATE ", t.quoted(), " SET ").assignments(cols, rest).where(keyCols, key)
	return t.db.ExecuteOperation(ctx, b.String(), b.args...)
}

// UpdateRecordsByCondition sets the new values on every row matching all
// condition fields and returns the affected row count. An empty condition
// list updates every row. The update is a single statement.
func (t *Table) UpdateRecordsByCondition(ctx context.Context, newValues, conditions []*record.FieldValue) (int64, error) {
	if len(newValues) == 0 {
		return 0, errors.Wrapf(ErrNoFields, "update of %s", t.meta.Name)
	}
	setCols, err := t.resolve(newValues)
	if err != nil {
		return 0, err
	}
	condCols, err := t.resolve(conditions)
	if err != nil {
		return 0, err
	}

	b := t.builder()
	b.write("UPDATE ", t.quoted(), " SET ").assignments(setCols, newValues).where(condCols, conditions)
	return t.db.ExecuteOperation(ctx, b.String(), b.args...)
}

// InsertRecord inserts rec's non-NULL fields, so omitted and NULL columns
// take their defaults.
func (t *Table) InsertRecord(ctx context.Context, rec *record.Record) (int64, error) {
	if rec == nil {
		return 0, errors.New("record is nil")
	}
	fields := rec.Fields()
	all, err := t.resolve(fields)
	if err != nil {
		return 0, err
	}

	var cols []core.Column
	var values []*record.FieldValue
	for i, f := range fields {
		if !f.IsNull() {
			cols = append(cols, all[i])
			values = append(values, f)
		}
	}

	b := t.builder()
	b.write("INSERT INTO ", t.quoted())
	if len(cols) == 0 {
		b.write(" DEFAULT VALUES")
	} else {
		b.write(" (").columnList(cols).write(") VALUES (")
		for i, f := range values {
			if i > 0 {
				b.write(", ")
			}
			b.write(b.bind(argValue(f)))
		}
		b.write(")")
	}
	return t.db.ExecuteOperation(ctx, b.String(), b.args...)
}

// DeleteRecord deletes the row addressed by pk and returns the affected
// row count.
func (t *Table) DeleteRecord(ctx context.Context, pk *record.PrimaryKeyValue) (int64, error) {
	if pk == nil || pk.Record == nil {
		return 0, errors.New("primary key value is nil")
	}
	fields := pk.Fields()
	cols, err := t.keyFields(fields)
	if err != nil {
		return 0, err
	}
	b := t.builder()
	b.write("DELETE FROM ", t.quoted()).where(cols, fields)
	return t.db.ExecuteOperation(ctx, b.String(), b.args...)
}

// DeleteRecordsByCondition deletes the rows matching every condition field.
// An empty condition list deletes every row.
func (t *Table) DeleteRecordsByCondition(ctx context.Context, conditions []*record.FieldValue) (int64, error) {
	cols, err := t.resolve(conditions)
	if err != nil {
		return 0, err
	}
	b := t.builder()
	b.write("DELETE FROM ", t.quoted()).where(cols, conditions)
	return t.db.ExecuteOperation(ctx, b.String(), b.args...)
}

// DeleteAllRecords deletes every row.
func (t *Table) DeleteAllRecords(ctx context.Context) (int64, error) {
	return t.DeleteRecordsByCondition(ctx, nil)
}

// defaultLiteral extracts a literal from a catalog column default.
// String literals are unquoted, casts ("'x'::date") and wrapping
// parentheses are dropped. Expressions such as CURRENT_TIMESTAMP or
// nextval(...) are not literals.
func defaultLiteral(def string) (string, bool) {
	s := strings.TrimSpace(def)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" || strings.EqualFold(s, "NULL") {
		return "", false
	}

	if s[0] == '\'' {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] != '\'' {
				b.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			return b.String(), true
		}
		return "", false
	}

	if i := strings.Index(s, "::"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.ContainsAny(s, "() ") {
		return "", false
	}
	switch strings.ToUpper(s) {
	case "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "NOW":
		return "", false
	}
	return s, true
}
