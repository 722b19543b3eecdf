package core

import (
	"strings"
)

// FieldType is the typed view of a column's values.
type FieldType int

// Supported field types.
const (
	FieldTypeInt FieldType = iota
	FieldTypeString
	FieldTypeDouble
	FieldTypeBoolean
	FieldTypeDateTime
)

var fieldTypeNames = map[FieldType]string{
	FieldTypeInt:      "int",
	FieldTypeString:   "string",
	FieldTypeDouble:   "double",
	FieldTypeBoolean:  "boolean",
	FieldTypeDateTime: "datetime",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseFieldType maps a declared SQL column type to a FieldType.
//
// The rules follow SQLite's type affinity, extended with BOOL and the
// date/time names the other engines report. Order matters: "DATETIME" must
// not fall into the INT rule, and "BOOLEAN" must not fall into TEXT.
// Intervals, geometric points and ranges are read as text.
func ParseFieldType(declType string) FieldType {
	t := strings.ToUpper(strings.TrimSpace(declType))
	switch {
	case strings.Contains(t, "INTERVAL"), strings.Contains(t, "POINT"), strings.Contains(t, "RANGE"):
		return FieldTypeString
	case strings.Contains(t, "BOOL"):
		return FieldTypeBoolean
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return FieldTypeDateTime
	case strings.Contains(t, "INT"):
		return FieldTypeInt
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return FieldTypeString
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return FieldTypeDouble
	default:
		return FieldTypeString
	}
}
