package record

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T) *Record {
	t.Helper()
	r, err := NewRecord(
		NewInt("ID", 4),
		NewFieldValue("FIELD_INT_INDEX", core.FieldTypeInt),
		NewString("FIELD_STR_INDEX", "FIELD_STR_INDEX_4"),
	)
	require.NoError(t, err)
	return r
}

func TestRecord_Field(t *testing.T) {
	r := newTestRecord(t)

	f, err := r.Field("FIELD_STR_INDEX")
	require.NoError(t, err)
	assert.Equal(t, "FIELD_STR_INDEX", f.Name())

	// lookup is case-insensitive
	f, err = r.Field("field_str_index")
	require.NoError(t, err)
	assert.Equal(t, "FIELD_STR_INDEX", f.Name())

	_, err = r.Field("MISSING")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldNotFound))
	assert.Contains(t, err.Error(), "MISSING")
}

func TestRecord_FieldIsShared(t *testing.T) {
	r := newTestRecord(t)

	f, err := r.Field("FIELD_INT_INDEX")
	require.NoError(t, err)
	require.NoError(t, f.SetIntValue(1234))

	again, err := r.Field("FIELD_INT_INDEX")
	require.NoError(t, err)
	v, err := again.IntValue()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), v)
}

func TestNewRecord_Duplicate(t *testing.T) {
	_, err := NewRecord(NewInt("ID", 1), NewInt("id", 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateField))
}

func TestRecord_OrderAndNames(t *testing.T) {
	r := newTestRecord(t)
	assert.Equal(t, []string{"ID", "FIELD_INT_INDEX", "FIELD_STR_INDEX"}, r.Names())
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Has("id"))
	assert.False(t, r.Has("FIELD_REAL"))
}

func TestRecord_Clone(t *testing.T) {
	r := newTestRecord(t)
	c := r.Clone()
	assert.True(t, r.Equal(c))

	f, err := c.Field("ID")
	require.NoError(t, err)
	require.NoError(t, f.SetIntValue(99))

	assert.False(t, r.Equal(c), "clone must not share field values")
	orig, err := r.Field("ID")
	require.NoError(t, err)
	v, err := orig.IntValue()
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestRecord_Subset(t *testing.T) {
	r := newTestRecord(t)

	sub, err := r.Subset("FIELD_STR_INDEX", "ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"FIELD_STR_INDEX", "ID"}, sub.Names())

	_, err = r.Subset("NOPE")
	assert.True(t, errors.Is(err, ErrFieldNotFound))
}

func TestNewPrimaryKeyValue(t *testing.T) {
	pk, err := NewPrimaryKeyValue(NewFieldValue("ID", core.FieldTypeInt))
	require.NoError(t, err)

	f, err := pk.Field("ID")
	require.NoError(t, err)
	require.NoError(t, f.SetIntValue(4))
	assert.Equal(t, []string{"ID"}, pk.Names())

	_, err = NewPrimaryKeyValue(NewInt("ID", 1), NewInt("ID", 1))
	assert.True(t, errors.Is(err, ErrDuplicateField))
}
