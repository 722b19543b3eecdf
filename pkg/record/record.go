// Package record provides the typed in-memory row model: named, typed
// field values grouped into records, and primary-key values used to
// address a single row.
//
// Records are plain data holders. Persistence is driven by the database
// package, which reads records to build SQL.
package record

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Record is an ordered collection of fields keyed by name.
// Field order follows the table's column order. Name lookup is
// case-insensitive, like SQL identifiers.
type Record struct {
	fields []*FieldValue
	index  map[string]int
}

// NewRecord creates a record from the given fields, keeping their order.
// Duplicate names fail with ErrDuplicateField.
func NewRecord(fields ...*FieldValue) (*Record, error) {
	r := &Record{
		fields: make([]*FieldValue, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := strings.ToLower(f.Name())
		if _, dup := r.index[key]; dup {
			return nil, errors.Wrapf(ErrDuplicateField, "field %q", f.Name())
		}
		r.index[key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// Field returns the named field.
func (r *Record) Field(name string) (*FieldValue, error) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrFieldNotFound, "field %q", name)
	}
	return r.fields[i], nil
}

// Has reports whether the record contains the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.index[strings.ToLower(name)]
	return ok
}

// Fields returns the fields in order. The slice is a copy; the fields are not.
func (r *Record) Fields() []*FieldValue {
	out := make([]*FieldValue, len(r.fields))
	copy(out, r.fields)
	return out
}

// Names returns the field names in order.
func (r *Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name()
	}
	return names
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Subset returns a new record sharing the named fields, in the given order.
func (r *Record) Subset(names ...string) (*Record, error) {
	fields := make([]*FieldValue, 0, len(names))
	for _, name := range names {
		f, err := r.Field(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return NewRecord(fields...)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		fields: make([]*FieldValue, len(r.fields)),
		index:  make(map[string]int, len(r.index)),
	}
	for i, f := range r.fields {
		c.fields[i] = f.Clone()
	}
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}

// Equal reports whether both records have the same field names, in the
// same order, with equal values.
func (r *Record) Equal(other *Record) bool {
	if other == nil || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		o := other.fields[i]
		if !strings.EqualFold(f.Name(), o.Name()) || !f.Equal(o) {
			return false
		}
	}
	return true
}

// PrimaryKeyValue is a record restricted to a table's primary-key fields.
// It addresses a single row and is never persisted directly.
type PrimaryKeyValue struct {
	*Record
}

// NewPrimaryKeyValue creates a primary-key value from the given key fields.
func NewPrimaryKeyValue(fields ...*FieldValue) (*PrimaryKeyValue, error) {
	r, err := NewRecord(fields...)
	if err != nil {
		return nil, err
	}
	return &PrimaryKeyValue{Record: r}, nil
}
