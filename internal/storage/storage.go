// Package storage selects the snapshot backend used by the session store.
package storage

import (
	"fmt"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
	"github.com/iLeonidze/OXPAHA28-bot/internal/storage/file"
	"github.com/iLeonidze/OXPAHA28-bot/internal/storage/memory"
	"github.com/iLeonidze/OXPAHA28-bot/internal/storage/sqlite"
)

// Re-export storage types from core/ports.
type (
	SnapshotStore = ports.SnapshotStore
	Snapshot      = ports.Snapshot
)

// Open returns the snapshot store configured by cfg.
func Open(cfg config.StorageConfig) (SnapshotStore, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(cfg.File.Path, file.WithCompression(cfg.File.Compress))
	case "sqlite":
		return sqlite.New(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
