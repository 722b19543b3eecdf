package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// Executor runs a statement and reports affected rows.
// *database.Database satisfies it.
type Executor interface {
	ExecuteOperation(ctx context.Context, sql string, args ...any) (int64, error)
}

// FixtureColumns lists the fixture table's columns in schema order.
var FixtureColumns = []string{
	"ID",
	"FIELD_INT_INDEX",
	"FIELD_INT_NO_INDEX",
	"FIELD_STR_INDEX",
	"FIELD_STR_NO_INDEX",
	"FIELD_REAL",
	"FIELD_BOOL",
	"FIELD_DATE",
}

// FixtureModulo is the period of FIELD_INT_INDEX: row i holds i % FixtureModulo.
const FixtureModulo = 7

// FixtureDefaultDate is the default of FIELD_DATE.
const FixtureDefaultDate = "2016-05-05"

// CreateFixtureTable creates a table with two secondary indexes (plus the
// primary-key index) and fills it with rows 0..rows-1:
//
//	ID                 = i
//	FIELD_INT_INDEX    = i % 7
//	FIELD_INT_NO_INDEX = i
//	FIELD_STR_INDEX    = "FIELD_STR_INDEX_<i>"
//	FIELD_STR_NO_INDEX = "FIELD_STR_NO_INDEX_<i>"
//	FIELD_REAL         = i * 1.5
//	FIELD_BOOL         = i is even
//	FIELD_DATE         = column default, 2016-05-05
func CreateFixtureTable(t testing.TB, exec Executor, name string, rows int) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			ID INT PRIMARY KEY NOT NULL,
			FIELD_INT_INDEX INT,
			FIELD_INT_NO_INDEX INT,
			FIELD_STR_INDEX CHAR(255),
			FIELD_STR_NO_INDEX CHAR(255),
			FIELD_REAL REAL,
			FIELD_BOOL BOOLEAN,
			FIELD_DATE DATETIME DEFAULT '%s'
		)`, name, FixtureDefaultDate),
		fmt.Sprintf("CREATE INDEX %s_INT_INDEX ON %s(FIELD_INT_INDEX)", name, name),
		fmt.Sprintf("CREATE INDEX %s_STR_INDEX ON %s(FIELD_STR_INDEX)", name, name),
	}
	for _, stmt := range stmts {
		if _, err := exec.ExecuteOperation(ctx, stmt); err != nil {
			t.Fatalf("failed to create fixture table %s: %v", name, err)
		}
	}

	// FIELD_DATE is left to the engine's default
	insert := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		name, strings.Join(FixtureColumns[:len(FixtureColumns)-1], ", "))
	for i := 0; i < rows; i++ {
		_, err := exec.ExecuteOperation(ctx, insert,
			i,
			i%FixtureModulo,
			i,
			fmt.Sprintf("FIELD_STR_INDEX_%d", i),
			fmt.Sprintf("FIELD_STR_NO_INDEX_%d", i),
			float64(i)*1.5,
			i%2 == 0,
		)
		if err != nil {
			t.Fatalf("failed to insert fixture row %d: %v", i, err)
		}
	}
}

// FixtureRowsWithIntIndex counts fixture rows whose FIELD_INT_INDEX equals v.
func FixtureRowsWithIntIndex(rows, v int) int {
	n := 0
	for i := 0; i < rows; i++ {
		if i%FixtureModulo == v {
			n++
		}
	}
	return n
}
