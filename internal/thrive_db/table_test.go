package thrivedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAttribute_RoundTrip(t *testing.T) {
	tdb := setupTestDb(t)

	table := tdb.Get("scratch")
	require.NoError(t, table.AddAttribute(Column{Name: "id", Type: "int", PrimaryKey: true}))
	require.NoError(t, table.AddAttribute(Column{Name: "label", Type: "str", Default: "x"}))
	require.NoError(t, table.AddAttribute(Column{Name: "count", Type: "int", Default: 0}))
	require.NoError(t, table.AddAttribute(Column{Name: "owner", Type: "int", References: "organizations"}))

	attrs, err := tdb.Attributes("scratch")
	require.NoError(t, err)
	require.Len(t, attrs, 4)

	assert.Equal(t, "INTEGER", attrs["id"].Type)
	assert.True(t, attrs["id"].PrimaryKey)
	assert.False(t, attrs["id"].NotNull)
	assert.False(t, attrs["id"].Default.Valid)

	assert.Equal(t, "TEXT", attrs["label"].Type)
	assert.False(t, attrs["label"].PrimaryKey)
	require.True(t, attrs["label"].Default.Valid)
	assert.Equal(t, "'x'", attrs["label"].Default.String)

	assert.Equal(t, "INTEGER", attrs["count"].Type)
	require.True(t, attrs["count"].Default.Valid)
	assert.Equal(t, "0", attrs["count"].Default.String)

	assert.Equal(t, "INTEGER", attrs["owner"].Type)

	// Schema-qualified lookup sees the same columns
	qualified, err := tdb.Attributes("main.scratch")
	require.NoError(t, err)
	assert.Equal(t, attrs, qualified)
}

func TestAddAttribute_UnsupportedType(t *testing.T) {
	tdb := setupTestDb(t)

	err := tdb.Get("scratch").AddAttribute(Column{Name: "blob", Type: "bytes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported column type")
}

func TestAppend_AssignsSequentialIds(t *testing.T) {
	tdb := setupTestDb(t)
	table := tdb.Get("organizations")

	first, err := table.Append(map[string]interface{}{"name": "acme"})
	require.NoError(t, err)
	second, err := table.Append(map[string]interface{}{"name": "globex"})
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestAppend_UniqueViolation(t *testing.T) {
	tdb := setupTestDb(t)
	table := tdb.Get("topics")

	_, err := table.Append(map[string]interface{}{"name": "ml"})
	require.NoError(t, err)

	// The unique index on name rejects the duplicate
	_, err = table.Append(map[string]interface{}{"name": "ml"})
	require.Error(t, err)
}

func TestAppend_ForeignKeyViolation(t *testing.T) {
	tdb := setupTestDb(t)

	_, err := tdb.Get("repos_topics").Append(map[string]interface{}{
		"repo":  9999,
		"topic": 9999,
	})
	require.Error(t, err)
}

func TestAppend_NoValues(t *testing.T) {
	tdb := setupTestDb(t)

	_, err := tdb.Get("topics").Append(map[string]interface{}{})
	require.Error(t, err)
}

func TestTable_String(t *testing.T) {
	tdb := setupTestDb(t)

	_, err := tdb.Get("topics").Append(map[string]interface{}{"name": "materials"})
	require.NoError(t, err)

	dump := tdb.Get("topics").String()
	assert.Contains(t, dump, "Table topics")
	assert.Contains(t, dump, "materials")
}
