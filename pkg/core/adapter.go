package core

import (
	"database/sql"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column describes one column of a table as read from the engine catalog.
type Column struct {
	Name       string
	Type       string // declared SQL type, e.g. "CHAR(255)"
	FieldType  FieldType
	Nullable   bool
	PrimaryKey bool
	Indexed    bool
	Position   int

	// Default is the column default as SQL text, nil when the column has none.
	Default *string
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	Indexes  []string
	RowCount int64
}

// PrimaryKey returns the primary-key columns in schema order.
func (m *TableMetadata) PrimaryKey() []Column {
	var pk []Column
	for _, c := range m.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
