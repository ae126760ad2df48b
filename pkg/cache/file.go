package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// noExpiry is how far ahead a file without TTL is dated.
const noExpiry = 10 * 365 * 24 * time.Hour

// File is a Store keeping one file per key under Dir. The file's
// modification time holds the expiry. Each file is guarded by a sibling
// lock file so separate processes can share the directory.
type File struct {
	Dir string
	now func() time.Time
}

var _ Store = (*File)(nil)

// NewFile creates dir if needed and returns a File store rooted there.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &File{Dir: dir, now: time.Now}, nil
}

// path spreads files over 256 subdirectories by key hash.
func (f *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(f.Dir, name[:2], name+".bin")
}

func (f *File) Get(key string) ([]byte, bool, error) {
	path := f.path(key)
	lock := flock.New(path + ".lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, err
	}
	if err := lock.RLock(); err != nil {
		return nil, false, fmt.Errorf("lock cache file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		_ = lock.Unlock()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !f.now().Before(info.ModTime()) {
		_ = lock.Unlock()
		return nil, false, f.Delete(key)
	}
	data, err := os.ReadFile(path)
	_ = lock.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *File) Set(key string, value []byte, ttl time.Duration) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache file: %w", err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, value, 0o644); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = noExpiry
	}
	expires := f.now().Add(ttl)
	return os.Chtimes(path, expires, expires)
}

func (f *File) Exists(key string) (bool, error) {
	_, ok, err := f.Get(key)
	return ok, err
}

func (f *File) Delete(keys ...string) error {
	for _, key := range keys {
		path := f.path(key)
		lock := flock.New(path + ".lock")
		if err := lock.Lock(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("lock cache file: %w", err)
		}
		err := os.Remove(path)
		_ = lock.Unlock()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
