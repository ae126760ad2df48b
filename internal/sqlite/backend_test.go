package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordkit/pkg/schema"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

const testSchema = `
CREATE TABLE app_customers (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE TABLE app_orders (
    id          INTEGER PRIMARY KEY,
    identifier  TEXT UNIQUE,
    customer_id INTEGER,
    status      INTEGER NOT NULL DEFAULT 1,
    json_data   TEXT,
    created_at  TEXT,
    CONSTRAINT fk_CustomerId_Orders FOREIGN KEY (customer_id) REFERENCES app_customers(id) ON DELETE CASCADE
);
CREATE TABLE app_notes (
    note_key TEXT PRIMARY KEY,
    body     TEXT
);
`

// attach returns a backend attached to a fresh data dir with the test
// schema applied.
func attach(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	cfg := types.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.TablePrefix = "app_"
	require.NoError(t, b.Attach(cfg))
	t.Cleanup(func() { b.Detach() })
	require.NoError(t, b.Exec(testSchema))
	return b
}

func TestBackendAttach(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend()
	cfg := types.DefaultConfig()
	cfg.DataDir = dir

	require.NoError(t, b.Attach(cfg))
	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err)

	assert.ErrorIs(t, b.Attach(cfg), types.ErrAlreadyAttached)
	require.NoError(t, b.Detach())
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackendDetach(t *testing.T) {
	b := attach(t)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())

	_, err := b.Table("{{%orders}}")
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.Exec("SELECT 1"), types.ErrDetached)
	_, err = b.DB()
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackendReattachKeepsData(t *testing.T) {
	b := NewBackend()
	cfg := types.DefaultConfig()
	cfg.DataDir = t.TempDir()
	require.NoError(t, b.Attach(cfg))
	require.NoError(t, b.Exec(testSchema))
	require.NoError(t, b.Exec("INSERT INTO app_customers (name) VALUES ('Ada')"))
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	tbl, err := b.Table("app_customers")
	require.NoError(t, err)
	n, err := tbl.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBackendTable(t *testing.T) {
	b := attach(t)

	orders, err := b.Table("{{%orders}}")
	require.NoError(t, err)
	assert.Equal(t, "app_orders", orders.Name())
	assert.Equal(t, "id", orders.PrimaryKey())
	assert.Equal(t, []string{"id", "identifier", "customer_id", "status", "json_data", "created_at"}, orders.Columns())

	again, err := b.Table("app_orders")
	require.NoError(t, err)
	assert.Same(t, orders, again)

	notes, err := b.Table("{{%notes}}")
	require.NoError(t, err)
	assert.Equal(t, "note_key", notes.PrimaryKey())

	_, err = b.Table("{{%missing}}")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBackendTableWithoutPrimaryKey(t *testing.T) {
	b := attach(t)
	require.NoError(t, b.Exec("CREATE TABLE app_log (line TEXT)"))

	_, err := b.Table("{{%log}}")
	assert.ErrorContains(t, err, "no primary key")
}

func TestTableSchema(t *testing.T) {
	b := attach(t)

	ts, err := b.TableSchema("{{%orders}}")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "app_orders", ts.Name)
	assert.True(t, ts.HasColumn("customer_id"))
	assert.False(t, ts.HasColumn("total"))
	assert.Equal(t, []string{"fk_CustomerId_Orders"}, ts.ForeignKeys)

	ts, err = b.TableSchema("{{%missing}}")
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestSchemaChecksAgainstBackend(t *testing.T) {
	b := attach(t)

	ok, err := schema.TablesExist(b, []string{"orders", "customers"}, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = schema.TablesExist(b, []string{"orders", "invoices"}, true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = schema.ColumnsExist(b, "orders", []string{"status", "json_data"}, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = schema.ForeignKeysExist(b, "{{%orders}}", []string{"customer_id"}, true, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = schema.ForeignKeysExist(b, "orders", []string{"fk_Missing_Orders"}, false, true)
	require.NoError(t, err)
	assert.False(t, ok)
}
