// Package sqlite provides the public API for the SQLite reference host.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/recordkit/internal/sqlite"
)

// Backend is the SQLite reference host. See the methods of the internal
// implementation for Attach, Detach, Exec, Table and TableSchema.
type Backend = sqlite.Backend

// Table and Row are the host's table accessor and record.
type (
	Table = sqlite.Table
	Row   = sqlite.Row
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	cfg := types.DefaultConfig()
//	cfg.DataDir = ".recordkit"
//	err := backend.Attach(cfg)
//	defer backend.Detach()
func NewBackend() *Backend {
	return sqlite.NewBackend()
}
