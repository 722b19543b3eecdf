package postgres

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// classify maps a PostgreSQL SQLSTATE to an adapter category.
func classify(err error) adapter.ErrorCategory {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return adapter.CategoryUnknown
	}
	switch pgErr.Code {
	case "42601": // syntax_error
		return adapter.CategorySyntax
	case "42P01", "42703", "42704": // undefined_table, undefined_column, undefined_object
		return adapter.CategoryNotFound
	case "42P07", "42710": // duplicate_table, duplicate_object
		return adapter.CategoryAlreadyExists
	}
	if strings.HasPrefix(pgErr.Code, "23") { // integrity_constraint_violation
		return adapter.CategoryConstraint
	}
	return adapter.CategoryUnknown
}
