package sqlite

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classify maps SQLite errors to adapter categories. SQLite reports most
// schema and syntax problems as SQLITE_ERROR, so those are told apart by
// their message.
func classify(err error) adapter.ErrorCategory {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return adapter.CategoryConstraint
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "incomplete input"),
		strings.Contains(msg, "unrecognized token"):
		return adapter.CategorySyntax
	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"),
		strings.Contains(msg, "no such index"):
		return adapter.CategoryNotFound
	case strings.Contains(msg, "already exists"):
		return adapter.CategoryAlreadyExists
	case strings.Contains(msg, "constraint failed"):
		return adapter.CategoryConstraint
	}
	return adapter.CategoryUnknown
}
