package record

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-module/carbon/v2"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// FieldValue is a named, typed scalar. The type is fixed at creation; the
// value is one of int64, string, float64, bool or time.Time, or nil for NULL.
type FieldValue struct {
	name  string
	typ   core.FieldType
	value any
}

// NewFieldValue creates a NULL field of the given type.
func NewFieldValue(name string, typ core.FieldType) *FieldValue {
	return &FieldValue{name: name, typ: typ}
}

// NewInt creates an int field holding v.
func NewInt(name string, v int64) *FieldValue {
	return &FieldValue{name: name, typ: core.FieldTypeInt, value: v}
}

// NewString creates a string field holding v.
func NewString(name, v string) *FieldValue {
	return &FieldValue{name: name, typ: core.FieldTypeString, value: v}
}

// NewDouble creates a double field holding v.
func NewDouble(name string, v float64) *FieldValue {
	return &FieldValue{name: name, typ: core.FieldTypeDouble, value: v}
}

// NewBoolean creates a boolean field holding v.
func NewBoolean(name string, v bool) *FieldValue {
	return &FieldValue{name: name, typ: core.FieldTypeBoolean, value: v}
}

// NewDateTime creates a date-time field holding v (stored in UTC).
func NewDateTime(name string, v time.Time) *FieldValue {
	return &FieldValue{name: name, typ: core.FieldTypeDateTime, value: v.UTC()}
}

// NewFieldValueFromSQL infers the field type from the Go type of an
// untyped result cell, as returned by database/sql when the engine reports
// no declared type (expressions, aggregates). NULL cells become NULL strings.
func NewFieldValueFromSQL(name string, raw any) *FieldValue {
	f := &FieldValue{name: name, typ: core.FieldTypeString}
	switch v := normalize(raw).(type) {
	case nil:
	case int64:
		f.typ, f.value = core.FieldTypeInt, v
	case float64:
		f.typ, f.value = core.FieldTypeDouble, v
	case bool:
		f.typ, f.value = core.FieldTypeBoolean, v
	case time.Time:
		f.typ, f.value = core.FieldTypeDateTime, v.UTC()
	case string:
		f.value = v
	default:
		f.value = fmt.Sprint(v)
	}
	return f
}

// Name returns the field name.
func (f *FieldValue) Name() string { return f.name }

// Type returns the declared field type.
func (f *FieldValue) Type() core.FieldType { return f.typ }

// IsNull reports whether the field holds NULL.
func (f *FieldValue) IsNull() bool { return f.value == nil }

// SetNull sets the field to NULL.
func (f *FieldValue) SetNull() { f.value = nil }

func (f *FieldValue) check(want core.FieldType) error {
	if f.typ != want {
		return errors.Wrapf(ErrTypeMismatch, "field %q is %s, not %s", f.name, f.typ, want)
	}
	return nil
}

func (f *FieldValue) get(want core.FieldType) (any, error) {
	if err := f.check(want); err != nil {
		return nil, err
	}
	if f.value == nil {
		return nil, errors.Wrapf(ErrNullValue, "field %q", f.name)
	}
	return f.value, nil
}

// IntValue returns the value of an int field.
func (f *FieldValue) IntValue() (int64, error) {
	v, err := f.get(core.FieldTypeInt)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// SetIntValue sets the value of an int field.
func (f *FieldValue) SetIntValue(v int64) error {
	if err := f.check(core.FieldTypeInt); err != nil {
		return err
	}
	f.value = v
	return nil
}

// StringValue returns the value of a string field.
func (f *FieldValue) StringValue() (string, error) {
	v, err := f.get(core.FieldTypeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SetStringValue sets the value of a string field.
func (f *FieldValue) SetStringValue(v string) error {
	if err := f.check(core.FieldTypeString); err != nil {
		return err
	}
	f.value = v
	return nil
}

// DoubleValue returns the value of a double field.
func (f *FieldValue) DoubleValue() (float64, error) {
	v, err := f.get(core.FieldTypeDouble)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// SetDoubleValue sets the value of a double field.
func (f *FieldValue) SetDoubleValue(v float64) error {
	if err := f.check(core.FieldTypeDouble); err != nil {
		return err
	}
	f.value = v
	return nil
}

// BooleanValue returns the value of a boolean field.
func (f *FieldValue) BooleanValue() (bool, error) {
	v, err := f.get(core.FieldTypeBoolean)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// SetBooleanValue sets the value of a boolean field.
func (f *FieldValue) SetBooleanValue(v bool) error {
	if err := f.check(core.FieldTypeBoolean); err != nil {
		return err
	}
	f.value = v
	return nil
}

// DateTimeValue returns the value of a date-time field, in UTC.
func (f *FieldValue) DateTimeValue() (time.Time, error) {
	v, err := f.get(core.FieldTypeDateTime)
	if err != nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}

// SetDateTimeValue sets the value of a date-time field.
func (f *FieldValue) SetDateTimeValue(v time.Time) error {
	if err := f.check(core.FieldTypeDateTime); err != nil {
		return err
	}
	f.value = v.UTC()
	return nil
}

// Equal reports whether both fields have the same type and value.
// Names are not compared. NULL equals NULL.
func (f *FieldValue) Equal(other *FieldValue) bool {
	if other == nil || f.typ != other.typ {
		return false
	}
	if f.value == nil || other.value == nil {
		return f.value == nil && other.value == nil
	}
	if f.typ == core.FieldTypeDateTime {
		return f.value.(time.Time).Equal(other.value.(time.Time))
	}
	return f.value == other.value
}

// Clone returns an independent copy of the field.
func (f *FieldValue) Clone() *FieldValue {
	c := *f
	return &c
}

// Value implements driver.Valuer so a field can be passed directly as a
// statement argument.
func (f *FieldValue) Value() (driver.Value, error) {
	return f.value, nil
}

// Scan implements sql.Scanner. It converts a loosely typed engine cell into
// the field's declared type; a cell that cannot be represented fails with
// ErrTypeMismatch and leaves the field unchanged.
func (f *FieldValue) Scan(src any) error {
	if src == nil {
		f.value = nil
		return nil
	}
	v, err := convert(f.typ, src)
	if err != nil {
		return errors.Wrapf(err, "field %q", f.name)
	}
	f.value = v
	return nil
}

// Parse sets the field from a textual literal according to its declared
// type. The literal NULL (any case) sets the field to NULL.
func (f *FieldValue) Parse(text string) error {
	if strings.EqualFold(text, "NULL") {
		f.value = nil
		return nil
	}
	return f.Scan(text)
}

// String renders the value for display.
func (f *FieldValue) String() string {
	switch v := f.value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if v.Equal(v.Truncate(24 * time.Hour)) {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.DateTime)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func mismatch(typ core.FieldType, src any) error {
	return errors.Wrapf(ErrTypeMismatch, "cannot convert %T to %s", src, typ)
}

// normalize widens the integer and float kinds drivers return to int64
// and float64.
func normalize(src any) any {
	switch v := src.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
	case float32:
		return float64(v)
	}
	return src
}

func convert(typ core.FieldType, src any) (any, error) {
	src = normalize(src)

	switch typ {
	case core.FieldTypeInt:
		switch v := src.(type) {
		case int64:
			return v, nil
		case float64:
			if v == math.Trunc(v) {
				return int64(v), nil
			}
		case bool:
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, nil
			}
		}

	case core.FieldTypeDouble:
		switch v := src.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return n, nil
			}
		}

	case core.FieldTypeString:
		switch v := src.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		case time.Time:
			return v.UTC().Format(time.RFC3339Nano), nil
		}

	case core.FieldTypeBoolean:
		switch v := src.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case float64:
			return v != 0, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, nil
			}
		}

	case core.FieldTypeDateTime:
		switch v := src.(type) {
		case time.Time:
			return v.UTC(), nil
		case int64:
			return time.Unix(v, 0).UTC(), nil
		case string:
			if t, ok := parseDateTime(v); ok {
				return t, nil
			}
		}
	}

	return nil, mismatch(typ, src)
}

// engineTimeLayouts are the layouts SQL engines write date-times in.
// Anything else goes through carbon's layout detection.
var engineTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range engineTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	c := carbon.Parse(s, carbon.UTC)
	if c.Error != nil || c.IsInvalid() {
		return time.Time{}, false
	}
	return c.ToStdTime().UTC(), true
}

var (
	_ sql.Scanner   = (*FieldValue)(nil)
	_ driver.Valuer = (*FieldValue)(nil)
)
