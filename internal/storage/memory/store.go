package memory

import (
	"context"
	"sync"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// Store keeps the last saved snapshot in memory. State does not survive a
// restart.
type Store struct {
	mu    sync.RWMutex
	snap  *ports.Snapshot
	saves int
}

var _ ports.SnapshotStore = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{}
}

func (s *Store) Save(ctx context.Context, snap *ports.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap.Clone()
	s.saves++
	return nil
}

func (s *Store) Load(ctx context.Context) (*ports.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Clone(), nil
}

// Saves returns how many snapshots were saved.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Close() error {
	return nil
}
