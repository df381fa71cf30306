package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/infrastructure/config"
)

// Open builds the EntryStore selected by cfg.Backend, wrapped in a memory
// tier when cfg.MemoryTier is set.
func Open(ctx context.Context, cfg config.CacheConfig) (ports.EntryStore, error) {
	var (
		durable ports.EntryStore
		err     error
	)

	switch cfg.Backend {
	case config.BackendDisk, "":
		durable, err = NewDiskStore(cfg.Dir)
	case config.BackendSQLite:
		durable, err = NewSQLiteStore(filepath.Join(cfg.Dir, SQLiteFile))
	case config.BackendRedis:
		durable, err = NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open %s cache store: %w", cfg.Backend, err)
	}

	if cfg.MemoryTier {
		return NewTieredStore(NewMemoryStore(), durable), nil
	}
	return durable, nil
}
