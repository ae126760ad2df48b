package integration

import (
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// TestMain builds the recordkit binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "recordkit-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "recordkit")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/recordkit")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	} else {
		recordkitBin = binPath
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// order is an exported orders row.
type order struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Status     int64  `json:"status"`
}

// seedOrders creates an orders table with rows in the environment's database.
func seedOrders(t *testing.T, env *TestEnv, rows ...order) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(env.DataDir, "records.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kit_orders (
		id INTEGER PRIMARY KEY,
		identifier TEXT UNIQUE,
		status INTEGER NOT NULL DEFAULT 1
	)`)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO kit_orders (id, identifier, status) VALUES (?, ?, ?)`, r.ID, r.Identifier, r.Status)
		require.NoError(t, err)
	}
}

func TestInitCreatesDatabase(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunRecordkit("init")
	assert.Contains(t, result.Stdout, "Wrote config.yaml")
	assert.FileExists(t, filepath.Join(env.DataDir, "records.db"))
	assert.FileExists(t, filepath.Join(env.Config, "config.yaml"))

	result = env.MustRunRecordkit("init")
	assert.NotContains(t, result.Stdout, "Wrote")
}

func TestVersionOutput(t *testing.T) {
	env := NewTestEnv(t)
	result := env.MustRunRecordkit("version")
	assert.True(t, strings.HasPrefix(result.Stdout, "recordkit v"))
}

func TestIdentifierFromConfig(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteConfig("identifier:\n  maximum_length: 9\n  prefix: INV-\n  exclude_lowercase: true\n")

	result := env.MustRunRecordkit("--json", "identifier", "generate", "--count", "5")
	ids := ParseJSON[[]string](t, result.Stdout)
	require.Len(t, ids, 5)
	for _, id := range ids {
		assert.Len(t, id, 9)
		assert.True(t, strings.HasPrefix(id, "INV-"))
		assert.Equal(t, strings.ToUpper(id), id)
	}
}

func TestTableRoundTripThroughJSONL(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteConfig("table_prefix: kit_\n")
	env.MustRunRecordkit("init")
	seedOrders(t, env,
		order{ID: 2, Identifier: "B-2", Status: 2},
		order{ID: 1, Identifier: "A-1", Status: 1},
	)

	result := env.MustRunRecordkit("table", "count", "--prefix", "orders")
	assert.Equal(t, "2\n", result.Stdout)

	export := filepath.Join(env.TempDir, "orders.jsonl")
	env.MustRunRecordkit("table", "export", "--prefix", "orders", export)
	rows := ReadJSONLFile[order](t, export)
	assert.Equal(t, []order{
		{ID: 1, Identifier: "A-1", Status: 1},
		{ID: 2, Identifier: "B-2", Status: 2},
	}, rows)

	// A fresh environment receives the export.
	other := NewTestEnv(t)
	other.WriteConfig("table_prefix: kit_\n")
	other.MustRunRecordkit("init")
	seedOrders(t, other)
	result = other.MustRunRecordkit("table", "import", "kit_orders", export)
	assert.Equal(t, "Imported 2 rows into kit_orders\n", result.Stdout)
	result = other.MustRunRecordkit("table", "count", "kit_orders")
	assert.Equal(t, "2\n", result.Stdout)
}

func TestSchemaCheckWithPrefix(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteConfig("table_prefix: kit_\n")
	env.MustRunRecordkit("init")
	seedOrders(t, env)

	result := env.MustRunRecordkit("schema", "check", "orders", "--prefix", "--column", "identifier,status")
	assert.Contains(t, result.Stdout, "exists: true")
	assert.Contains(t, result.Stdout, "columns: true")

	result = env.MustRunRecordkit("schema", "check", "orders", "--column", "identifier")
	assert.Contains(t, result.Stdout, "exists: false")
}

func TestErrorsExitNonZero(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunRecordkit("size", "parse", "1.2.3M")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "Error:")

	result = env.RunRecordkit("table", "count", "missing")
	assert.Equal(t, 1, result.ExitCode)
}
