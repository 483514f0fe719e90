// Package dedup keeps a short-lived index of recently published reports so an
// identical report sent again within the TTL is answered with a link to the
// first one.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// DefaultTTL is how long a published report blocks identical ones.
const DefaultTTL = 5 * time.Minute

// Cache is an append-only list of pending submissions, trimmed by Prune.
// The population is bounded by the TTL, so lookups scan linearly.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  []domain.PendingSubmission
	inflight map[string]*Claim
	now      func() time.Time
	logger   *slog.Logger
}

// Claim reserves a content hash while its report is being published. It is
// settled by Commit or Release; until then Reserve calls for the same hash
// wait.
type Claim struct {
	cache   *Cache
	hash    string
	done    chan struct{}
	settled bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a cache with the given TTL; a non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:      ttl,
		inflight: make(map[string]*Claim),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the most recent live entry with the given hash. Entries
// older than the TTL are ignored even before Prune removes them.
func (c *Cache) Lookup(hash string) (domain.PendingSubmission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(hash)
}

func (c *Cache) lookup(hash string) (domain.PendingSubmission, bool) {
	now := c.now()
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.ContentHash == hash && !c.expired(e, now) {
			return e, true
		}
	}
	return domain.PendingSubmission{}, false
}

// Record appends an entry for a published submission.
func (c *Cache) Record(authorID int64, hash string, submissionID int64) domain.PendingSubmission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record(authorID, hash, submissionID)
}

func (c *Cache) record(authorID int64, hash string, submissionID int64) domain.PendingSubmission {
	entry := domain.PendingSubmission{
		ContentHash:  hash,
		SubmissionID: submissionID,
		AuthorID:     authorID,
		CreatedAt:    c.now(),
	}
	c.entries = append(c.entries, entry)
	return entry
}

// Reserve returns the live entry for hash if there is one. Otherwise it
// hands out a Claim on hash, waiting first for any other claim on the same
// hash to settle. Exactly one of the entry and the claim is set on success.
// The holder must settle the claim with Commit or Release.
func (c *Cache) Reserve(ctx context.Context, hash string) (domain.PendingSubmission, *Claim, error) {
	for {
		c.mu.Lock()
		if e, ok := c.lookup(hash); ok {
			c.mu.Unlock()
			return e, nil, nil
		}
		other, busy := c.inflight[hash]
		if !busy {
			claim := &Claim{cache: c, hash: hash, done: make(chan struct{})}
			c.inflight[hash] = claim
			c.mu.Unlock()
			return domain.PendingSubmission{}, claim, nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.PendingSubmission{}, nil, ctx.Err()
		case <-other.done:
		}
	}
}

// Commit records the published submission and wakes waiting Reserve calls,
// which then see the new entry.
func (cl *Claim) Commit(authorID, submissionID int64) domain.PendingSubmission {
	c := cl.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.record(authorID, cl.hash, submissionID)
	cl.settle()
	return entry
}

// Release gives up the claim without recording anything; one waiting
// Reserve call takes over. It is a no-op after Commit.
func (cl *Claim) Release() {
	c := cl.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	cl.settle()
}

// settle must be called with the cache lock held.
func (cl *Claim) settle() {
	if cl.settled {
		return
	}
	cl.settled = true
	delete(cl.cache.inflight, cl.hash)
	close(cl.done)
}

// Prune removes entries whose age at now exceeds the TTL and returns how
// many were removed.
func (c *Cache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, e := range c.entries {
		if !c.expired(e, now) {
			kept = append(kept, e)
		}
	}
	removed := len(c.entries) - len(kept)
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = domain.PendingSubmission{}
	}
	c.entries = kept
	return removed
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run prunes on every tick until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Prune(c.now()); n > 0 {
				c.logger.Debug("pruned pending submissions", slog.Int("removed", n))
			}
		}
	}
}

func (c *Cache) expired(e domain.PendingSubmission, now time.Time) bool {
	return now.Sub(e.CreatedAt) > c.ttl
}
