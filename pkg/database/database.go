// Package database provides typed record access over a SQL engine.
//
// A Database wraps one connected adapter. Raw SQL goes through
// ExecuteQuery and ExecuteOperation; typed access goes through Table
// handles, which build parameterized SQL from records and field values.
//
// Table handles are cached by name and their schema is read once, on first
// access. DDL run afterwards is not reflected in an already cached handle.
//
// A Database is not safe for concurrent use, apart from the table cache.
package database

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Database is a connection to one engine plus its cached table handles.
type Database struct {
	id      string
	adapter adapter.Adapter
	logger  *slog.Logger

	mu     sync.Mutex
	tables map[string]*Table
	closed bool
}

// New wraps a connected adapter.
// If logger is nil, a discard logger is used.
func New(adp adapter.Adapter, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.New().String()
	return &Database{
		id:      id,
		adapter: adp,
		logger:  logger.With(slog.String("db", id), slog.String("dialect", adp.DialectName())),
		tables:  make(map[string]*Table),
	}
}

// Open resolves the adapter named by the "type" parameter (sqlite when
// absent), connects it and wraps it.
func Open(ctx context.Context, conf core.ConnectionConfiguration, logger *slog.Logger) (*Database, error) {
	cfg := core.AdapterConfigFrom(conf, "sslmode")

	adp, err := adapter.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(adp, logger), nil
}

// ID returns the instance identifier used in log records.
func (d *Database) ID() string {
	return d.id
}

// Adapter returns the underlying adapter.
func (d *Database) Adapter() adapter.Adapter {
	return d.adapter
}

// Dialect returns the engine name.
func (d *Database) Dialect() string {
	return d.adapter.DialectName()
}

// ExecuteQuery runs a statement that returns rows. The returned record set
// is positioned on the first row and must be drained or closed.
// Engine failures are returned as *QueryError.
func (d *Database) ExecuteQuery(ctx context.Context, sql string, args ...any) (*RecordSet, error) {
	rows, err := d.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return newRecordSet(rows, queryScanner(rows.Rows)), nil
}

// ExecuteOperation runs a statement that returns no rows (DDL or DML) and
// reports the affected row count, 0 for DDL.
// Engine failures are returned as *OperationError.
func (d *Database) ExecuteOperation(ctx context.Context, sql string, args ...any) (int64, error) {
	if d.isClosed() {
		return 0, ErrClosed
	}
	n, err := d.adapter.Exec(ctx, sql, args...)
	if err != nil {
		d.logger.Debug("operation failed", slog.String("sql", sql), slog.String("error", err.Error()))
		return 0, &OperationError{SQL: sql, Err: err}
	}
	d.logger.Debug("operation executed", slog.String("sql", sql), slog.Int64("rows_affected", n))
	return n, nil
}

func (d *Database) query(ctx context.Context, sql string, args ...any) (*core.Rows, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	rows, err := d.adapter.Query(ctx, sql, args...)
	if err != nil {
		d.logger.Debug("query failed", slog.String("sql", sql), slog.String("error", err.Error()))
		return nil, &QueryError{SQL: sql, Err: err}
	}
	d.logger.Debug("query executed", slog.String("sql", sql))
	return rows, nil
}

// Table returns the handle for the named table, reading its schema from
// the engine catalog on first access. Names match case-insensitively.
func (d *Database) Table(ctx context.Context, name string) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	key := strings.ToLower(name)
	if t, ok := d.tables[key]; ok {
		return t, nil
	}

	meta, err := d.adapter.GetTableMetadata(ctx, name)
	if err != nil {
		if adapter.CategoryOf(err) == adapter.CategoryNotFound {
			return nil, errors.Wrapf(ErrTableNotFound, "table %q", name)
		}
		return nil, errors.Wrapf(err, "failed to read schema of %q", name)
	}

	t := newTable(d, meta)
	d.tables[key] = t
	d.logger.Debug("table loaded",
		slog.String("table", meta.Name),
		slog.Int("columns", len(meta.Columns)),
		slog.Int("indexes", len(meta.Indexes)))
	return t, nil
}

// TableNames lists the tables currently in the engine catalog.
func (d *Database) TableNames(ctx context.Context) ([]string, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	names, err := d.adapter.ListTables(ctx)
	if err != nil {
		return nil, &QueryError{SQL: "list tables", Err: err}
	}
	return names, nil
}

// Close closes the connection. Cached tables and open record sets become
// unusable.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.tables = make(map[string]*Table)
	d.logger.Debug("closing database")
	return d.adapter.Close()
}

func (d *Database) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
