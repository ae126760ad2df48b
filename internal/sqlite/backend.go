// Package sqlite implements the reference record host on SQLite: a backend
// owning the database, tables that load and persist rows, and lifecycle
// events that recordkit services subscribe to.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/recordkit/pkg/schema"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// DatabaseFile is the database file created inside DataDir.
const DatabaseFile = "records.db"

// Backend owns the SQLite database of the reference host.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]*Table

	Logger *slog.Logger
}

var _ schema.Inspector = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*Table),
	}
}

func (b *Backend) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Attach opens (creating if needed) DataDir/records.db.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	// One connection keeps PRAGMAs and in-flight transactions consistent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger().Debug("backend attached", "path", dbPath)
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*Table)
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// DB returns the open database.
func (b *Backend) DB() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// RawTableName resolves the {{%...}} placeholder with the configured prefix.
func (b *Backend) RawTableName(name string) string {
	return schema.RawTableName(name, b.Config().TablePrefix)
}

// Exec runs a statement, typically DDL, verbatim.
func (b *Backend) Exec(statement string, args ...any) error {
	db, err := b.DB()
	if err != nil {
		return err
	}
	if _, err := db.Exec(statement, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Table returns the accessor for an existing table. The name may carry the
// {{%...}} placeholder. Accessors are cached so lifecycle handlers
// registered on a table stay attached.
// Returns ErrTableNotFound if the table does not exist. Tables need a
// primary key column.
func (b *Backend) Table(name string) (*Table, error) {
	raw := b.RawTableName(name)

	b.mu.RLock()
	t, ok := b.tables[raw]
	b.mu.RUnlock()
	if ok {
		return t, nil
	}

	info, err := b.inspect(raw)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, raw)
	}
	if info.primaryKey == "" {
		return nil, fmt.Errorf("table %s has no primary key", raw)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	if t, ok := b.tables[raw]; ok {
		return t, nil
	}
	t = newTable(b, info)
	b.tables[raw] = t
	return t, nil
}
