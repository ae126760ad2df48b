package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
`

// SQLite is a Store persisting entries in the cache_entries table.
type SQLite struct {
	db  *sql.DB
	own bool
	now func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) an SQLite database at dsn and
// prepares the cache table. Close releases the database.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("cache dsn must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.own = true
	return s, nil
}

// NewSQLite prepares the cache table inside an already open database.
// The caller keeps ownership of db.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(sqliteCacheSchema); err != nil {
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database if it was opened by OpenSQLite.
func (s *SQLite) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var (
		value   []byte
		expires int64
	)
	err := squirrel.Select("value", "expires_at").
		From("cache_entries").
		Where(squirrel.Eq{"key": key}).
		RunWith(s.db).
		QueryRow().
		Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if expires > 0 && s.now().UnixNano() >= expires {
		return nil, false, s.Delete(key)
	}
	return value, true, nil
}

func (s *SQLite) Set(key string, value []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = s.now().Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}
	_, err := squirrel.Insert("cache_entries").
		Columns("key", "value", "expires_at").
		Values(key, value, expires).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at").
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *SQLite) Exists(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *SQLite) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := squirrel.Delete("cache_entries").
		Where(squirrel.Eq{"key": keys}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("delete cache entries: %w", err)
	}
	return nil
}

// Purge removes every expired entry.
func (s *SQLite) Purge() (int64, error) {
	res, err := squirrel.Delete("cache_entries").
		Where(squirrel.And{squirrel.Gt{"expires_at": 0}, squirrel.LtOrEq{"expires_at": s.now().UnixNano()}}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	return res.RowsAffected()
}
