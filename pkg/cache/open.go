package cache

import (
	"log/slog"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Open builds the Backend described by cfg. A driver that is unknown or
// cannot be opened is logged and replaced by Dummy, so callers always get
// a usable cache.
func Open(cfg types.CacheConfig, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", types.CacheDriverDummy:
		return Dummy{}
	case types.CacheDriverMemory:
		return NewTagged(NewMemory())
	case types.CacheDriverFile:
		store, err := NewFile(cfg.Dir)
		if err != nil {
			logger.Warn("cache unavailable, using dummy cache", "driver", cfg.Driver, "error", err)
			return Dummy{}
		}
		return NewTagged(store)
	case types.CacheDriverSQLite:
		store, err := OpenSQLite(cfg.DSN)
		if err != nil {
			logger.Warn("cache unavailable, using dummy cache", "driver", cfg.Driver, "error", err)
			return Dummy{}
		}
		return NewTagged(store)
	default:
		logger.Warn("unknown cache driver, using dummy cache", "driver", cfg.Driver)
		return Dummy{}
	}
}
