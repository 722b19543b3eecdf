package database

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

var (
	// ErrTableNotFound is returned when the engine catalog has no table
	// with the requested name.
	ErrTableNotFound = errors.New("table not found")

	// ErrNoPrimaryKey is returned for key-addressed operations on a table
	// without a primary key.
	ErrNoPrimaryKey = errors.New("table has no primary key")

	// ErrNoFields is returned by updates that would set no field.
	ErrNoFields = errors.New("no fields to set")

	// ErrClosed is returned by operations on a closed Database.
	ErrClosed = errors.New("database is closed")
)

// QueryError is returned when the engine rejects a statement run through
// ExecuteQuery or a table read.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %s", adapter.EngineMessage(e.Err))
}

func (e *QueryError) Unwrap() error { return e.Err }

// Category returns the engine error category.
func (e *QueryError) Category() adapter.ErrorCategory {
	return adapter.CategoryOf(e.Err)
}

// OperationError is returned when the engine rejects a statement run
// through ExecuteOperation or a table write.
type OperationError struct {
	SQL string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed: %s", adapter.EngineMessage(e.Err))
}

func (e *OperationError) Unwrap() error { return e.Err }

// Category returns the engine error category.
func (e *OperationError) Category() adapter.ErrorCategory {
	return adapter.CategoryOf(e.Err)
}
