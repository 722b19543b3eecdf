// Package adapter provides the database adapter contract used by the
// database package, plus a database/sql base that concrete adapters embed.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves by name from their init functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Short names for the core types adapters deal in.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// reading the catalog.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows and reports the
	// number of rows it changed.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Query executes a statement that returns rows. The caller owns the
	// returned rows and must close them.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// GetTableMetadata reads columns, primary key, defaults and indexes of
	// a table. A missing table fails with an EngineError in CategoryNotFound.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// ListTables returns the names of the user tables, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// EqualExpr returns the boolean expression testing a quoted column of
	// type ft against a bind marker.
	EqualExpr(column string, ft core.FieldType, placeholder string) string

	// DialectName returns the engine name, e.g. "sqlite".
	DialectName() string
}

