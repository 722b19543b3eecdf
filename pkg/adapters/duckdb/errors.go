package duckdb

import (
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// classify maps DuckDB errors by the "<Kind> Error:" prefix of their message.
func classify(err error) adapter.ErrorCategory {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "Parser Error"):
		return adapter.CategorySyntax
	case strings.Contains(msg, "Constraint Error"):
		return adapter.CategoryConstraint
	case strings.Contains(msg, "Catalog Error") && strings.Contains(lower, "already exists"):
		return adapter.CategoryAlreadyExists
	case strings.Contains(msg, "Catalog Error"),
		strings.Contains(msg, "Binder Error") && strings.Contains(lower, "not found"):
		return adapter.CategoryNotFound
	}
	return adapter.CategoryUnknown
}
