package ports

import (
	"context"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// Snapshot is the persisted document holding every session keyed by user id.
type Snapshot struct {
	Version  int                       `json:"version" yaml:"version"`
	SavedAt  time.Time                 `json:"saved_at" yaml:"saved_at"`
	Sessions map[int64]*domain.Session `json:"sessions" yaml:"sessions"`
}

// SnapshotVersion is the current snapshot layout version.
const SnapshotVersion = 1

// SnapshotStore persists whole-store snapshots. Save must be all-or-nothing:
// after a failed Save the previously saved snapshot is still loadable.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the last saved snapshot, or nil without error when none
	// has been saved yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Close releases the underlying resources.
	Close() error
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Version:  s.Version,
		SavedAt:  s.SavedAt,
		Sessions: make(map[int64]*domain.Session, len(s.Sessions)),
	}
	for id, sess := range s.Sessions {
		out.Sessions[id] = sess.Clone()
	}
	return out
}
