package commands

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/leapstack-labs/leapdb/pkg/record"
)

// parseAssignments turns "column=value" arguments into field values typed
// after the table's columns. The literal NULL (any case) is a NULL value.
func parseAssignments(tbl *database.Table, args []string) ([]*record.FieldValue, error) {
	fields := make([]*record.FieldValue, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Newf("expected column=value, got %q", arg)
		}

		col, err := tbl.Column(name)
		if err != nil {
			return nil, err
		}
		f := record.NewFieldValue(col.Name, col.FieldType)
		if err := f.Parse(value); err != nil {
			return nil, errors.Wrapf(err, "invalid value for %s", col.Name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// primaryKeyFrom builds the table's primary key from "column=value"
// arguments. Every key column must be given.
func primaryKeyFrom(tbl *database.Table, args []string) (*record.PrimaryKeyValue, error) {
	pk, err := tbl.NewPrimaryKey()
	if err != nil {
		return nil, err
	}
	fields, err := parseAssignments(tbl, args)
	if err != nil {
		return nil, err
	}
	if len(fields) != pk.Len() {
		return nil, errors.Newf("table %s has primary key (%s), got %d value(s)",
			tbl.Name(), strings.Join(pk.Names(), ", "), len(fields))
	}
	for _, f := range fields {
		if !pk.Has(f.Name()) {
			return nil, errors.Newf("%s is not part of the primary key (%s)", f.Name(), strings.Join(pk.Names(), ", "))
		}
	}
	return record.NewPrimaryKeyValue(fields...)
}

// describeFields renders fields as "a=1, b=x".
func describeFields(fields []*record.FieldValue) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name() + "=" + f.String()
	}
	return strings.Join(parts, ", ")
}
