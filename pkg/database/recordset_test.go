package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idOf(t *testing.T, rs *database.TableRecordSet) int64 {
	t.Helper()
	require.True(t, rs.Valid())
	return intField(t, rs.Current(), "ID")
}

func TestRecordSet_PositionedOnFirstRow(t *testing.T) {
	_, tbl := fixtureTable(t, 3)

	rs, err := tbl.AllRecords(context.Background())
	require.NoError(t, err)
	defer func() { _ = rs.Close() }()

	assert.Equal(t, int64(0), idOf(t, rs))
	assert.True(t, rs.Next())
	assert.Equal(t, int64(1), idOf(t, rs))
	assert.True(t, rs.Next())
	assert.Equal(t, int64(2), idOf(t, rs))
	assert.False(t, rs.Next())
	assert.False(t, rs.Valid())
	assert.Nil(t, rs.Current())
	assert.False(t, rs.Next(), "Next past the end stays invalid")
	assert.NoError(t, rs.Err())
}

func TestRecordSet_Empty(t *testing.T) {
	_, tbl := fixtureTable(t, 0)

	rs, err := tbl.AllRecords(context.Background())
	require.NoError(t, err)
	assert.False(t, rs.Valid())
	n, err := rs.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, rs.Close())
}

func TestRecordSet_Count(t *testing.T) {
	tests := []struct {
		name    string
		advance int
	}{
		{"at start", 0},
		{"after two steps", 2},
		{"at the end", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tbl := fixtureTable(t, 10)
			rs, err := tbl.AllRecords(context.Background())
			require.NoError(t, err)
			defer func() { _ = rs.Close() }()

			for i := 0; i < tt.advance; i++ {
				rs.Next()
			}
			n, err := rs.Count()
			require.NoError(t, err)
			assert.Equal(t, 10, n, "count covers passed, current and remaining records")

			// the cursor is unaffected by Count
			var rest []int64
			for rs.Valid() {
				rest = append(rest, idOf(t, rs))
				rs.Next()
			}
			assert.Len(t, rest, 10-min(tt.advance, 10))
			if len(rest) > 0 {
				assert.Equal(t, int64(tt.advance), rest[0])
			}

			n, err = rs.Count()
			require.NoError(t, err)
			assert.Equal(t, 10, n)
		})
	}
}

func TestRecordSet_AllBreakReleases(t *testing.T) {
	ctx := context.Background()
	db, tbl := fixtureTable(t, 10)

	rs, err := tbl.AllRecords(ctx)
	require.NoError(t, err)
	seen := 0
	for _, err := range rs.All() {
		require.NoError(t, err)
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
	assert.False(t, rs.Valid(), "breaking out of All closes the cursor")

	// the connection is free for writes
	_, err = db.ExecuteOperation(ctx, "DELETE FROM TEST_TABLE WHERE ID = 9")
	require.NoError(t, err)
}

func TestRecordSet_CloseIsIdempotent(t *testing.T) {
	_, tbl := fixtureTable(t, 2)

	rs, err := tbl.AllRecords(context.Background())
	require.NoError(t, err)
	require.NoError(t, rs.Close())
	require.NoError(t, rs.Close())
	assert.False(t, rs.Valid())
	assert.False(t, rs.Next())
}

func TestRecordSet_Independent(t *testing.T) {
	_, tbl := fixtureTable(t, 5)
	ctx := context.Background()

	a, err := tbl.AllRecords(ctx)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := tbl.AllRecords(ctx)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	a.Next()
	a.Next()
	assert.Equal(t, int64(2), idOf(t, a))
	assert.Equal(t, int64(0), idOf(t, b))
}

func TestRecordSet_InMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(ctx, adapter.Config{Type: "sqlite", Path: sqlite.MemoryPath}))
	db := database.New(adp, testutil.NewTestLogger(t))
	defer func() { _ = db.Close() }()

	testutil.CreateFixtureTable(t, db, "TEST_TABLE", 5)
	tbl, err := db.Table(ctx, "TEST_TABLE")
	require.NoError(t, err)

	rs, err := tbl.AllRecords(ctx)
	require.NoError(t, err)
	n, err := rs.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, rs.Close())
}

func TestRecordSet_RowError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	adp := sqlite.New(nil)
	adp.DB = mockDB
	db := database.New(adp, nil)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"A"}).
		AddRow(1).
		AddRow(2).
		RowError(1, errors.New("disk I/O error"))
	mock.ExpectQuery("SELECT A FROM T").WillReturnRows(rows)

	rs, err := db.ExecuteQuery(context.Background(), "SELECT A FROM T")
	require.NoError(t, err)
	require.True(t, rs.Valid())

	f, err := rs.Current().Field("A")
	require.NoError(t, err)
	v, err := f.IntValue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	assert.False(t, rs.Next())
	require.Error(t, rs.Err())
	assert.Contains(t, rs.Err().Error(), "disk I/O error")

	_, err = rs.Count()
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSet_DuplicateColumnNames(t *testing.T) {
	ctx := context.Background()
	db, _ := fixtureTable(t, 1)

	rs, err := db.ExecuteQuery(ctx, "SELECT ID, ID FROM TEST_TABLE")
	require.NoError(t, err)
	defer func() { _ = rs.Close() }()

	require.True(t, rs.Valid())
	assert.Equal(t, []string{"ID", "ID_2"}, rs.Current().Names())

	tests := []struct {
		query string
		names []string
	}{
		{"SELECT 1 AS a, 2 AS a, 3 AS a", []string{"a", "a_2", "a_3"}},
		{"SELECT 1 AS a, 2 AS a, 3 AS a_2", []string{"a", "a_3", "a_2"}},
		{"SELECT 1 AS a_2, 2 AS a, 3 AS a", []string{"a_2", "a", "a_3"}},
		{"SELECT 1 AS a, 2 AS A, 3 AS a_3", []string{"a", "A_2", "a_3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rs, err := db.ExecuteQuery(ctx, tt.query)
			require.NoError(t, err)
			defer func() { _ = rs.Close() }()

			require.True(t, rs.Valid(), "error: %v", rs.Err())
			assert.Equal(t, tt.names, rs.Current().Names())
		})
	}
}
