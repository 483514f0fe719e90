// Package session owns the per-user session map. Sessions are handed out as
// copies; callers serialize work on one user with Lock and write back with
// Put. Dirty sessions are persisted as a whole-store snapshot by Flush.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

type Store struct {
	mu       sync.Mutex
	sessions map[int64]*domain.Session
	dirty    map[int64]struct{}

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	// flushMu serializes snapshot writes so an older snapshot never
	// overwrites a newer one.
	flushMu sync.Mutex

	backend ports.SnapshotStore
	initial domain.StepID
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store persisting to backend. Fresh sessions start at
// initial.
func New(backend ports.SnapshotStore, initial domain.StepID, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[int64]*domain.Session),
		dirty:    make(map[int64]struct{}),
		locks:    make(map[int64]*sync.Mutex),
		backend:  backend,
		initial:  initial,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lock serializes work on one user's session and returns the unlock
// function.
func (s *Store) Lock(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns a copy of the user's session, or a fresh one positioned at the
// initial step. It never fails.
func (s *Store) Get(userID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		return sess.Clone()
	}
	return domain.NewSession(userID, s.initial, s.now())
}

// Exists reports whether the user has a stored session.
func (s *Store) Exists(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[userID]
	return ok
}

// Put replaces the stored session and marks it dirty.
func (s *Store) Put(userID int64, sess *domain.Session) {
	stored := sess.Clone()
	stored.UserID = userID
	stored.Dirty = true

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = stored
	s.dirty[userID] = struct{}{}
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// DirtyCount returns the number of sessions changed since the last flush.
func (s *Store) DirtyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}

// FindBySubmission returns the user whose submission history contains the
// moderation channel message id.
func (s *Store) FindBySubmission(submissionID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, sess := range s.sessions {
		if sess.HasSubmission(submissionID) {
			return userID, true
		}
	}
	return 0, false
}

// Flush persists the whole store if any session is dirty. On failure the
// sessions stay dirty and the next flush retries.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	snap := &ports.Snapshot{
		Version:  ports.SnapshotVersion,
		SavedAt:  s.now(),
		Sessions: make(map[int64]*domain.Session, len(s.sessions)),
	}
	for id, sess := range s.sessions {
		snap.Sessions[id] = sess.Clone()
	}
	flushed := s.dirty
	s.dirty = make(map[int64]struct{})
	for id := range flushed {
		s.sessions[id].Dirty = false
	}
	s.mu.Unlock()

	if err := s.backend.Save(ctx, snap); err != nil {
		s.mu.Lock()
		for id := range flushed {
			s.dirty[id] = struct{}{}
			if sess, ok := s.sessions[id]; ok {
				sess.Dirty = true
			}
		}
		s.mu.Unlock()
		return err
	}

	s.logger.Debug("sessions flushed",
		slog.Int("sessions", len(snap.Sessions)),
		slog.Int("dirty", len(flushed)))
	return nil
}

// Load replaces the in-memory sessions with the last snapshot. A missing
// snapshot leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	sessions := make(map[int64]*domain.Session)
	if snap != nil {
		for id, sess := range snap.Sessions {
			if sess == nil {
				continue
			}
			restored := sess.Clone()
			restored.UserID = id
			restored.Dirty = false
			sessions[id] = restored
		}
	}

	s.mu.Lock()
	s.sessions = sessions
	s.dirty = make(map[int64]struct{})
	s.mu.Unlock()

	s.logger.Info("sessions loaded", slog.Int("sessions", len(sessions)))
	return nil
}

// Run flushes every interval until ctx is done. Failures are logged and
// retried on the next tick.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Error("session flush failed",
					slog.String("error", err.Error()),
					slog.Int("dirty", s.DirtyCount()))
			}
		}
	}
}
