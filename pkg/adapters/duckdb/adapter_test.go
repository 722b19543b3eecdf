package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/leapstack-labs/leapdb/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func mustExec(t *testing.T, ctx context.Context, adp *Adapter, sql string) {
	t.Helper()
	_, err := adp.Exec(ctx, sql)
	require.NoError(t, err)
}

func TestAdapter_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("file is created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.duckdb")
		adp := New(nil)
		require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: path}))
		defer func() { _ = adp.Close() }()

		_, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, path, adp.Cfg.Path)
	})

	t.Run("empty path is in-memory", func(t *testing.T) {
		adp := New(nil)
		require.NoError(t, adp.Connect(ctx, core.AdapterConfig{}))
		defer func() { _ = adp.Close() }()
		assert.True(t, adp.IsConnected())
	})

	t.Run("bad params leave it disconnected", func(t *testing.T) {
		adp := New(nil)
		err := adp.Connect(ctx, core.AdapterConfig{Params: map[string]any{"unknown_key": true}})
		require.Error(t, err)
		assert.False(t, adp.IsConnected())
	})
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.Exec(ctx, "SELECT 1")
	assert.True(t, errors.Is(err, adapter.ErrNotConnected), "exec")
	_, err = adp.Query(ctx, "SELECT 1")
	assert.True(t, errors.Is(err, adapter.ErrNotConnected), "query")
	_, err = adp.ListTables(ctx)
	assert.True(t, errors.Is(err, adapter.ErrNotConnected), "list tables")
	_, err = adp.GetTableMetadata(ctx, "t")
	assert.True(t, errors.Is(err, adapter.ErrNotConnected), "metadata")

	assert.NoError(t, adp.Close(), "close without connect")
}

func TestAdapter_ExecRowsAffected(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	mustExec(t, ctx, adp, `CREATE TABLE t (id INTEGER PRIMARY KEY, flag BOOLEAN)`)
	n, err := adp.Exec(ctx, `INSERT INTO t VALUES (1, true), (2, false), (3, true)`)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = adp.Exec(ctx, `UPDATE t SET flag = false WHERE flag = ?`, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	mustExec(t, ctx, adp, `
		CREATE TABLE TEST_TABLE (
			ID INTEGER PRIMARY KEY,
			FIELD_INT_INDEX BIGINT,
			FIELD_STR_NO_INDEX VARCHAR NOT NULL,
			FIELD_REAL DOUBLE,
			FIELD_BOOL BOOLEAN,
			FIELD_DATE TIMESTAMP DEFAULT '2016-05-05',
			FIELD_SPAN INTERVAL
		)
	`)
	mustExec(t, ctx, adp, `CREATE INDEX INT_INDEX ON TEST_TABLE(FIELD_INT_INDEX)`)
	mustExec(t, ctx, adp, `INSERT INTO TEST_TABLE (ID, FIELD_STR_NO_INDEX) VALUES (1, 'a'), (2, 'b')`)

	meta, err := adp.GetTableMetadata(ctx, "test_table")
	require.NoError(t, err)
	assert.Equal(t, "TEST_TABLE", meta.Name, "catalog spelling")
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, []string{"INT_INDEX"}, meta.Indexes)
	assert.Equal(t, int64(2), meta.RowCount)

	type col struct {
		Name     string
		Type     core.FieldType
		PK       bool
		Indexed  bool
		Nullable bool
	}
	want := []col{
		{"ID", core.FieldTypeInt, true, true, false},
		{"FIELD_INT_INDEX", core.FieldTypeInt, false, true, true},
		{"FIELD_STR_NO_INDEX", core.FieldTypeString, false, false, false},
		{"FIELD_REAL", core.FieldTypeDouble, false, false, true},
		{"FIELD_BOOL", core.FieldTypeBoolean, false, false, true},
		{"FIELD_DATE", core.FieldTypeDateTime, false, false, true},
		{"FIELD_SPAN", core.FieldTypeString, false, false, true},
	}
	var got []col
	for _, c := range meta.Columns {
		got = append(got, col{c.Name, c.FieldType, c.PrimaryKey, c.Indexed, c.Nullable})
	}
	assert.Equal(t, want, got)

	require.NotNil(t, meta.Columns[5].Default)
	assert.Contains(t, *meta.Columns[5].Default, "2016-05-05")
	assert.Nil(t, meta.Columns[1].Default)

	_, err = adp.GetTableMetadata(ctx, "nonexistent_table")
	require.Error(t, err)
	assert.Equal(t, adapter.CategoryNotFound, adapter.CategoryOf(err))
}

func TestAdapter_ListTables(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	mustExec(t, ctx, adp, `CREATE TABLE b (id INTEGER)`)
	mustExec(t, ctx, adp, `CREATE TABLE a (id INTEGER)`)
	mustExec(t, ctx, adp, `CREATE VIEW v AS SELECT * FROM a`)

	names, err := adp.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg      string
		expected adapter.ErrorCategory
	}{
		{`Parser Error: syntax error at or near "SELEC"`, adapter.CategorySyntax},
		{`Constraint Error: Duplicate key "id: 1" violates primary key constraint`, adapter.CategoryConstraint},
		{`Catalog Error: Table with name t already exists!`, adapter.CategoryAlreadyExists},
		{`Catalog Error: Table with name nope does not exist!`, adapter.CategoryNotFound},
		{`Binder Error: Referenced column "x" not found in FROM clause!`, adapter.CategoryNotFound},
		{`Binder Error: No function matches the given name`, adapter.CategoryUnknown},
		{`IO Error: Cannot open file`, adapter.CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.expected, classify(errors.New(tt.msg)))
		})
	}
}

func TestAdapter_ErrorCategories(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	mustExec(t, ctx, adp, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	mustExec(t, ctx, adp, `INSERT INTO t VALUES (1)`)

	tests := []struct {
		name     string
		sql      string
		expected adapter.ErrorCategory
	}{
		{"syntax", "SELEC 1", adapter.CategorySyntax},
		{"missing table", "DROP TABLE nope", adapter.CategoryNotFound},
		{"duplicate table", "CREATE TABLE t (id INTEGER)", adapter.CategoryAlreadyExists},
		{"primary key violation", "INSERT INTO t VALUES (1)", adapter.CategoryConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adp.Exec(ctx, tt.sql)
			require.Error(t, err)
			assert.Equal(t, tt.expected, adapter.CategoryOf(err), "error: %v", err)
		})
	}
}

func TestDialect(t *testing.T) {
	adp := New(nil)
	assert.Equal(t, "duckdb", adp.DialectName())
	assert.Equal(t, "?", adp.Placeholder(2))
	assert.Equal(t, `"D" = ?`, adp.EqualExpr(`"D"`, core.FieldTypeDateTime, "?"))
}

// The typed record layer on top of DuckDB, using the shared fixture table.
func TestDatabase_TableOperations(t *testing.T) {
	ctx := context.Background()
	const rows = 25

	db, err := database.Open(ctx, core.MapConfiguration{
		core.ParamType:     "duckdb",
		core.ParamFilePath: filepath.Join(t.TempDir(), "fixture.duckdb"),
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	testutil.CreateFixtureTable(t, db, "TEST_TABLE", rows)
	tbl, err := db.Table(ctx, "test_table")
	require.NoError(t, err)
	assert.Equal(t, "TEST_TABLE", tbl.Name())
	assert.Contains(t, tbl.Indexes(), "TEST_TABLE_INT_INDEX")

	rec := tbl.NewRecord()
	date, err := rec.Field("FIELD_DATE")
	require.NoError(t, err)
	dv, err := date.DateTimeValue()
	require.NoError(t, err, "column default is applied")
	assert.Equal(t, testutil.FixtureDefaultDate, dv.Format(time.DateOnly))

	pk, err := tbl.NewPrimaryKey()
	require.NoError(t, err)
	id, err := pk.Field("ID")
	require.NoError(t, err)
	require.NoError(t, id.SetIntValue(4))
	got, err := tbl.RecordByPrimaryKey(ctx, pk)
	require.NoError(t, err)
	require.NotNil(t, got)
	s, err := got.Field("FIELD_STR_INDEX")
	require.NoError(t, err)
	sv, err := s.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "FIELD_STR_INDEX_4", sv)

	n, err := tbl.UpdateRecordsByCondition(ctx,
		[]*record.FieldValue{record.NewString("FIELD_STR_NO_INDEX", "UPDATED")},
		[]*record.FieldValue{record.NewInt("FIELD_INT_INDEX", 0)})
	require.NoError(t, err)
	assert.Equal(t, int64(testutil.FixtureRowsWithIntIndex(rows, 0)), n)

	rs, err := tbl.FilterRecordsByFields(ctx, []*record.FieldValue{
		record.NewString("FIELD_STR_NO_INDEX", "UPDATED"),
		record.NewBoolean("FIELD_BOOL", true),
	})
	require.NoError(t, err)
	count, err := rs.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count, "rows 0 and 14")
	require.NoError(t, rs.Close())

	highest, err := tbl.MaxFieldValue(ctx, "FIELD_INT_NO_INDEX")
	require.NoError(t, err)
	assert.Equal(t, int64(rows-1), highest)

	n, err = tbl.DeleteRecordsByCondition(ctx, []*record.FieldValue{record.NewInt("FIELD_INT_INDEX", 6)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	total, err := tbl.RecordsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(rows-3), total)
}
