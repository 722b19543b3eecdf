package record

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrTypeMismatch is returned when a field is read, written or matched
	// with a type other than its declared one.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrFieldNotFound is returned when a record has no field with the requested name.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNullValue is returned when a typed getter is called on a NULL field.
	ErrNullValue = errors.New("field is null")

	// ErrDuplicateField is returned when the same field name appears twice
	// in a record or in a field list.
	ErrDuplicateField = errors.New("duplicate field")
)
