package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordkit/pkg/query"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

func ordersTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := attach(t).Table("{{%orders}}")
	require.NoError(t, err)
	return tbl
}

func TestTableCRUD(t *testing.T) {
	tbl := ordersTable(t)

	row := tbl.New()
	assert.True(t, row.IsNewRecord())
	assert.Nil(t, row.PrimaryKey())

	row.SetAttributes(map[string]any{"identifier": "A1", "status": 1, "unknown": "ignored"})
	require.NoError(t, row.Save(true))
	assert.False(t, row.IsNewRecord())
	assert.Equal(t, int64(1), row.PrimaryKey())

	found, err := tbl.Find(row.PrimaryKey())
	require.NoError(t, err)
	assert.Equal(t, "A1", found.Attribute("identifier"))
	assert.Equal(t, int64(1), found.Attribute("status"))
	assert.Nil(t, found.Attribute("unknown"))

	found.SetAttribute("status", 2)
	require.NoError(t, found.Save(false))

	reloaded, err := tbl.FindByID(int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.Attribute("status"))

	byString, err := tbl.Find(" 1 ")
	require.NoError(t, err)
	assert.Equal(t, "A1", byString.Attribute("identifier"))
	byRow, err := tbl.Find(found)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byRow.PrimaryKey())
	_, err = tbl.Find("first")
	assert.ErrorIs(t, err, types.ErrInvalidID)

	require.NoError(t, found.Delete())
	_, err = tbl.Find(int64(1))
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = tbl.Find(nil)
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.ErrorIs(t, tbl.New().Delete(), types.ErrNewRecord)
}

func TestTableTextPrimaryKey(t *testing.T) {
	tbl, err := attach(t).Table("{{%notes}}")
	require.NoError(t, err)

	row := tbl.New()
	row.SetAttributes(map[string]any{"note_key": "welcome", "body": "hi"})
	require.NoError(t, row.Save(false))
	assert.Equal(t, "welcome", row.PrimaryKey())

	row.SetAttribute("body", "hello")
	require.NoError(t, row.Save(false))
	found, err := tbl.Find("welcome")
	require.NoError(t, err)
	assert.Equal(t, "hello", found.Attribute("body"))
}

func TestTableSaveRejectsForeignRow(t *testing.T) {
	b := attach(t)
	orders, err := b.Table("{{%orders}}")
	require.NoError(t, err)
	notes, err := b.Table("{{%notes}}")
	require.NoError(t, err)

	err = orders.Save(notes.New(), false)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestTableEvents(t *testing.T) {
	tbl := ordersTable(t)

	var got []*types.Event
	record := func(e *types.Event) error {
		got = append(got, e)
		return nil
	}
	for _, name := range []types.LifecycleEvent{
		types.EventBeforeValidate, types.EventBeforeInsert, types.EventBeforeUpdate,
		types.EventAfterInsert, types.EventAfterUpdate, types.EventAfterDelete,
	} {
		tbl.On(name, record)
	}

	row := tbl.New()
	row.SetAttributes(map[string]any{"identifier": "A1", "status": 1})
	require.NoError(t, row.Save(true))
	require.Len(t, got, 3)
	assert.Equal(t, types.EventBeforeValidate, got[0].Name)
	assert.Equal(t, types.EventBeforeInsert, got[1].Name)
	assert.Equal(t, types.EventAfterInsert, got[2].Name)
	old, ok := got[2].Changed("status")
	assert.True(t, ok)
	assert.Nil(t, old)

	got = nil
	row.SetAttribute("status", 3)
	row.SetAttribute("identifier", "A1")
	require.NoError(t, row.Save(false))
	require.Len(t, got, 2)
	assert.Equal(t, types.EventBeforeUpdate, got[0].Name)
	assert.Equal(t, types.EventAfterUpdate, got[1].Name)
	assert.Equal(t, map[string]any{"status": 1}, got[1].ChangedAttributes)

	got = nil
	require.NoError(t, row.Save(false))
	require.Len(t, got, 2)
	assert.Empty(t, got[1].ChangedAttributes)

	got = nil
	require.NoError(t, row.Delete())
	require.Len(t, got, 1)
	assert.Equal(t, types.EventAfterDelete, got[0].Name)
	assert.Equal(t, int64(1), got[0].Record.PrimaryKey())
}

func TestTableBeforeHandlerAborts(t *testing.T) {
	tbl := ordersTable(t)
	rejected := errors.New("rejected")
	tbl.On(types.EventBeforeInsert, func(*types.Event) error { return rejected })

	row := tbl.New()
	row.SetAttribute("identifier", "A1")
	assert.ErrorIs(t, row.Save(false), rejected)
	assert.True(t, row.IsNewRecord())

	n, err := tbl.Count(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRowDirtyAndClone(t *testing.T) {
	tbl := ordersTable(t)
	row := tbl.New()
	row.SetAttributes(map[string]any{"identifier": "A1", "status": 1})
	require.NoError(t, row.Save(false))

	assert.Empty(t, row.Dirty())
	row.SetAttribute("status", int64(1))
	assert.Empty(t, row.Dirty())
	row.SetAttribute("status", "1")
	assert.Empty(t, row.Dirty())
	row.SetAttribute("status", 4)
	assert.Equal(t, map[string]any{"status": 1}, row.Dirty())

	clone := row.Clone().(*Row)
	clone.SetAttribute("identifier", "B2")
	assert.Equal(t, "A1", row.Attribute("identifier"))
	assert.False(t, clone.IsNewRecord())
	assert.Equal(t, row.PrimaryKey(), clone.PrimaryKey())
	assert.Equal(t, "app_orders#1", row.String())
}

func TestFindAllAndCount(t *testing.T) {
	tbl := ordersTable(t)
	for i, status := range []int{1, 2, 2, 3} {
		row := tbl.New()
		row.SetAttributes(map[string]any{"identifier": string(rune('A' + i)), "status": status})
		require.NoError(t, row.Save(false))
	}

	q := tbl.Query()
	_, err := q.Alias("o")
	require.NoError(t, err)
	_, err = query.ByNumericValue(q, q.ColumnName("status"), []int{2, 3}, query.Positive, nil, query.And)
	require.NoError(t, err)
	q.OrderBy("o.id DESC")

	rows, err := tbl.FindAll(q)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "D", rows[0].Attribute("identifier"))

	n, err := tbl.Count(q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := tbl.FindAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestExistsByIdentifier(t *testing.T) {
	tbl := ordersTable(t)
	row := tbl.New()
	row.SetAttribute("identifier", "ABC")
	require.NoError(t, row.Save(false))

	ok, err := tbl.ExistsByIdentifier("identifier", "ABC", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tbl.ExistsByIdentifier("identifier", "ABC", row.PrimaryKey())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tbl.ExistsByIdentifier("identifier", "XYZ", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExportImport(t *testing.T) {
	src := ordersTable(t)
	for _, id := range []string{"A", "B"} {
		row := src.New()
		row.SetAttributes(map[string]any{"identifier": id, "status": 2, "json_data": `{"k":1}`})
		require.NoError(t, row.Save(false))
	}
	path := filepath.Join(t.TempDir(), "orders.jsonl")
	require.NoError(t, src.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, []byte("not json\n[1,2]\n{\"identifier\":\"C\",\"extra\":true}\n")...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	dst := ordersTable(t)
	n, err := dst.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := dst.FindAll(dst.Query().OrderBy("id"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Attribute("identifier"))
	assert.Equal(t, int64(2), rows[1].Attribute("status"))
	assert.Equal(t, `{"k":1}`, rows[1].Attribute("json_data"))
	assert.Equal(t, "C", rows[2].Attribute("identifier"))

	n, err = dst.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	count, err := dst.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
