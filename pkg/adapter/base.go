package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and identifier handling.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger

	// Classify sorts driver errors into categories. Nil leaves every
	// engine error in CategoryUnknown.
	Classify Classifier
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows and reports the
// number of rows it changed. Engines that cannot tell report 0.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	res, err := b.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, errors.Wrap(b.EngineError(err), "failed to execute SQL")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // DDL on some drivers has no row count
	}
	return n, nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(b.EngineError(err), "failed to execute query")
	}
	return &core.Rows{Rows: rows}, nil
}

// EngineError classifies a driver error with the adapter's Classifier.
func (b *BaseSQLAdapter) EngineError(err error) *EngineError {
	return NewEngineError(err, b.Classify)
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Placeholder returns the positional "?" marker.
func (b *BaseSQLAdapter) Placeholder(_ int) string {
	return "?"
}

// EqualExpr returns "column = placeholder".
func (b *BaseSQLAdapter) EqualExpr(column string, _ core.FieldType, placeholder string) string {
	return column + " = " + placeholder
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func (b *BaseSQLAdapter) QuoteIdentifier(name string) string {
	return QuoteIdentifier(name)
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if not specified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// DollarPlaceholder returns the "$n" marker used by PostgreSQL.
func DollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// NotFound builds the EngineError returned for a missing table.
func NotFound(table string) *EngineError {
	return &EngineError{
		Category: CategoryNotFound,
		Message:  fmt.Sprintf("table %s not found", table),
	}
}

// ListTablesCommon lists base tables of schema via information_schema.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, schema string, placeholder func(int) string) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	//nolint:gosec // Placeholders are safe - they come from the adapter
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, placeholder(1))

	rows, err := b.DB.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, errors.Wrap(b.EngineError(err), "failed to list tables")
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating tables")
	}
	sort.Strings(names)
	return names, nil
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata
// over information_schema. Table names match case-insensitively; the
// returned metadata carries the catalog spelling. Primary-key columns are
// marked Indexed; adapters add secondary indexes from their own catalogs.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table, defaultSchema string, placeholder func(int) string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	//nolint:gosec // Placeholders are safe - they come from the adapter
	resolve := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND lower(table_name) = lower(%s)
	`, placeholder(1), placeholder(2))

	var actual string
	if err := b.DB.QueryRowContext(ctx, resolve, schema, tableName).Scan(&actual); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound(table)
		}
		return nil, errors.Wrap(b.EngineError(err), "failed to resolve table")
	}

	//nolint:gosec // Placeholders are safe - they come from the adapter
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position,
			column_default
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, actual)
	if err != nil {
		return nil, errors.Wrap(b.EngineError(err), "failed to query column metadata")
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &def); err != nil {
			return nil, errors.Wrap(err, "failed to scan column metadata")
		}
		col.Nullable = nullable == "YES"
		col.FieldType = core.ParseFieldType(col.Type)
		if def.Valid {
			d := def.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating column metadata")
	}
	if len(columns) == 0 {
		return nil, NotFound(table)
	}

	pk, err := b.primaryKeyColumns(ctx, schema, actual, placeholder)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		if pk[columns[i].Name] {
			columns[i].PrimaryKey = true
			columns[i].Indexed = true
			columns[i].Nullable = false
		}
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     actual,
		Columns:  columns,
		RowCount: b.countRows(ctx, QuoteIdentifier(schema)+"."+QuoteIdentifier(actual)),
	}, nil
}

func (b *BaseSQLAdapter) primaryKeyColumns(ctx context.Context, schema, table string, placeholder func(int) string) (map[string]bool, error) {
	//nolint:gosec // Placeholders are safe - they come from the adapter
	query := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = %s AND tc.table_name = %s
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, errors.Wrap(b.EngineError(err), "failed to query primary key")
	}
	defer func() { _ = rows.Close() }()

	pk := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan primary key column")
		}
		pk[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating primary key")
	}
	return pk, nil
}

// countRows returns the row count of a quoted table reference, or 0 when
// the count cannot be read.
func (b *BaseSQLAdapter) countRows(ctx context.Context, quoted string) int64 {
	var n int64
	//nolint:gosec // Table names are quoted catalog names
	if err := b.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&n); err != nil {
		return 0
	}
	return n
}

// CountRows returns the row count of a quoted table reference, or 0 when
// the count cannot be read.
func (b *BaseSQLAdapter) CountRows(ctx context.Context, quoted string) int64 {
	if b.DB == nil {
		return 0
	}
	return b.countRows(ctx, quoted)
}

// MarkIndexed flags the named columns of meta as indexed. Names match
// case-insensitively.
func MarkIndexed(meta *core.TableMetadata, columns ...string) {
	for _, name := range columns {
		for i := range meta.Columns {
			if strings.EqualFold(meta.Columns[i].Name, name) {
				meta.Columns[i].Indexed = true
			}
		}
	}
}

// IndexColumnsFromDDL extracts the column list of a CREATE INDEX statement.
// Quoted names are unquoted; expressions are returned verbatim.
func IndexColumnsFromDDL(ddl string) []string {
	open := strings.LastIndex(ddl, "(")
	closing := strings.LastIndex(ddl, ")")
	if open < 0 || closing < open {
		return nil
	}
	var cols []string
	for _, part := range strings.Split(ddl[open+1:closing], ",") {
		name := strings.TrimSpace(part)
		if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[0] // drop ASC/DESC
		}
		name = strings.Trim(name, `"`+"`[]")
		if name != "" {
			cols = append(cols, name)
		}
	}
	return cols
}
