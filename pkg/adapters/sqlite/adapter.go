// Package sqlite provides a SQLite database adapter built on the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryPath is the path of a private in-memory database.
const MemoryPath = ":memory:"

// defaultPragmas are applied to every connection of a file database.
// WAL lets an open read cursor coexist with writes on other connections.
var defaultPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Classify: classify},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens the database file, creating it if needed.
// An empty path or ":memory:" opens a private in-memory database. An
// in-memory database lives in a single connection, so the pool is capped
// at one: a record set left open blocks every other statement until it is
// drained or closed.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	memory := isMemory(path)
	dsn := buildDSN(path, dsnParams(memory))

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrap(err, "failed to open sqlite connection")
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(a.EngineError(err), "failed to ping sqlite")
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

func isMemory(path string) bool {
	return path == MemoryPath || strings.Contains(path, "mode=memory")
}

// dsnParams returns the driver query parameters of a connection. Times
// are written in SQLite's own text format so date functions can read them;
// pragmas apply to file databases only.
func dsnParams(memory bool) []string {
	params := []string{"_time_format=sqlite"}
	if memory {
		return params
	}
	for _, p := range defaultPragmas {
		params = append(params, "_pragma="+p)
	}
	return params
}

// buildDSN appends query parameters to a path.
func buildDSN(path string, params []string) string {
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range params {
		b.WriteString(sep)
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// EqualExpr compares date-time columns through julianday, so a date
// written as '2016-05-05' matches the same instant bound from a time.Time.
func (a *Adapter) EqualExpr(column string, ft core.FieldType, placeholder string) string {
	if ft == core.FieldTypeDateTime {
		return "julianday(" + column + ") = julianday(" + placeholder + ")"
	}
	return a.BaseSQLAdapter.EqualExpr(column, ft, placeholder)
}

// ListTables returns user tables, excluding SQLite's internal ones.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(a.EngineError(err), "failed to list tables")
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
	return names, nil
}

// GetTableMetadata reads a table's columns from PRAGMA table_info and its
// indexes from pragma_index_list. The lookup is case-insensitive.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	var name string
	err := a.DB.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)", table).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, adapter.NotFound(table)
		}
		return nil, errors.Wrap(a.EngineError(err), "failed to resolve table")
	}

	columns, err := a.tableInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, adapter.NotFound(table)
	}

	meta := &core.TableMetadata{
		Schema:  "main",
		Name:    name,
		Columns: columns,
	}

	indexes, indexed, err := a.indexes(ctx, name)
	if err != nil {
		return nil, err
	}
	meta.Indexes = indexes
	adapter.MarkIndexed(meta, indexed...)

	meta.RowCount = a.CountRows(ctx, a.QuoteIdentifier(name))
	return meta, nil
}

func (a *Adapter) tableInfo(ctx context.Context, table string) ([]core.Column, error) {
	//nolint:gosec // Table name is a quoted catalog name
	rows, err := a.DB.QueryContext(ctx, "PRAGMA table_info("+a.QuoteIdentifier(table)+")")
	if err != nil {
		return nil, errors.Wrap(a.EngineError(err), "failed to query column metadata")
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			cid     int
			col     core.Column
			notNull int
			def     sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &def, &pk); err != nil {
			return nil, errors.Wrap(err, "failed to scan column metadata")
		}
		col.Position = cid + 1
		col.FieldType = core.ParseFieldType(col.Type)
		col.PrimaryKey = pk > 0
		col.Nullable = notNull == 0 && !col.PrimaryKey
		if col.PrimaryKey {
			col.Indexed = true
		}
		if def.Valid {
			d := def.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating column metadata")
	}
	return columns, nil
}

// indexes returns the table's index names, including automatic ones, and
// the distinct columns they cover.
func (a *Adapter) indexes(ctx context.Context, table string) (names, columns []string, err error) {
	rows, err := a.DB.QueryContext(ctx, "SELECT name FROM pragma_index_list(?)", table)
	if err != nil {
		return nil, nil, errors.Wrap(a.EngineError(err), "failed to list indexes")
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, nil, errors.Wrap(err, "failed to scan index name")
		}
		names = append(names, name)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, nil, errors.Wrap(err, "error iterating indexes")
	}
	sort.Strings(names)

	rows, err = a.DB.QueryContext(ctx, `
		SELECT DISTINCT ii.name
		FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
	`, table)
	if err != nil {
		return nil, nil, errors.Wrap(a.EngineError(err), "failed to list indexed columns")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col sql.NullString
		if err := rows.Scan(&col); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan indexed column")
		}
		// expression indexes have no column name
		if col.Valid {
			columns = append(columns, col.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "error iterating indexed columns")
	}
	return names, columns, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
