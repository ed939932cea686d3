package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"sennabot/models"
)

const (
	// DefaultCacheTTL bounds how long a cached guild record is served
	// without re-reading the backend.
	DefaultCacheTTL = 300 * time.Second

	// DefaultLockWait is the soft budget for acquiring a guild lock before
	// the caller is told to retry.
	DefaultLockWait = 3 * time.Second
)

// Options tunes a Store. Zero values fall back to the defaults.
type Options struct {
	CacheTTL time.Duration
	LockWait time.Duration
}

type cacheEntry struct {
	record   models.GuildRecord
	loadedAt time.Time
}

// Store owns one cache entry and one lock per guild and serializes every
// read-modify-write against a guild's record set. Locks are created lazily
// on first access and never removed; locks for different guilds are never
// nested, so there is no cross-guild deadlock.
type Store struct {
	backend  Backend
	cacheTTL time.Duration
	lockWait time.Duration

	mu    sync.Mutex
	locks map[int64]chan struct{}
	cache map[int64]*cacheEntry
}

// New creates a guild store on top of a persistence backend.
func New(backend Backend, opts Options) *Store {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.LockWait <= 0 {
		opts.LockWait = DefaultLockWait
	}
	return &Store{
		backend:  backend,
		cacheTTL: opts.CacheTTL,
		lockWait: opts.LockWait,
		locks:    make(map[int64]chan struct{}),
		cache:    make(map[int64]*cacheEntry),
	}
}

// lockFor returns the guild's lock channel, creating it on first touch.
func (s *Store) lockFor(guildID int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[guildID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[guildID] = lock
	}
	return lock
}

// acquire takes the guild lock, waiting at most the soft budget. It returns
// ErrContention when the budget is exceeded so the command can be retried.
func (s *Store) acquire(ctx context.Context, guildID int64) (release func(), err error) {
	lock := s.lockFor(guildID)

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		log.WithField("guildID", guildID).Warn("Guild lock wait budget exceeded")
		return nil, fmt.Errorf("guild %d: %w", guildID, ErrContention)
	}
}

// loadLocked returns the guild record, serving the cache while it is inside
// the TTL. Must be called with the guild lock held. A corrupt blob that the
// backend could not restore is surfaced as an empty record; the corruption
// has already been logged by the backend.
func (s *Store) loadLocked(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	s.mu.Lock()
	entry, ok := s.cache[guildID]
	s.mu.Unlock()
	if ok && time.Since(entry.loadedAt) < s.cacheTTL {
		return entry.record, nil
	}

	record, err := s.backend.Read(ctx, guildID)
	if err != nil {
		var corrupt *CorruptDataError
		if !errors.As(err, &corrupt) {
			return nil, fmt.Errorf("failed to load guild %d: %w", guildID, err)
		}
		// Backend already fell back to an empty record set.
	}

	s.mu.Lock()
	s.cache[guildID] = &cacheEntry{record: record, loadedAt: time.Now()}
	s.mu.Unlock()
	return record, nil
}

// saveLocked persists the record and refreshes the cache only after the
// write succeeds, so a failed write never corrupts the in-memory state.
// Must be called with the guild lock held.
func (s *Store) saveLocked(ctx context.Context, guildID int64, record models.GuildRecord) error {
	if err := s.backend.Write(ctx, guildID, record); err != nil {
		return fmt.Errorf("failed to save guild %d: %w", guildID, err)
	}

	s.mu.Lock()
	s.cache[guildID] = &cacheEntry{record: record, loadedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

// Load returns a deep copy of the guild's record set.
func (s *Store) Load(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	release, err := s.acquire(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer release()

	record, err := s.loadLocked(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Save persists a guild's record set under the guild lock.
func (s *Store) Save(ctx context.Context, guildID int64, record models.GuildRecord) error {
	release, err := s.acquire(ctx, guildID)
	if err != nil {
		return err
	}
	defer release()

	return s.saveLocked(ctx, guildID, record.Clone())
}

// Update runs fn against a working copy of the guild's record set and
// persists the result, all while holding the guild lock. If fn returns an
// error nothing is saved and the error is returned unchanged.
func (s *Store) Update(ctx context.Context, guildID int64, fn func(record models.GuildRecord) error) error {
	release, err := s.acquire(ctx, guildID)
	if err != nil {
		return err
	}
	defer release()

	record, err := s.loadLocked(ctx, guildID)
	if err != nil {
		return err
	}

	working := record.Clone()
	if err := fn(working); err != nil {
		return err
	}
	return s.saveLocked(ctx, guildID, working)
}

// InvalidateCache clears one guild's cache entry, forcing the next load to
// bypass the TTL and re-read the backend.
func (s *Store) InvalidateCache(guildID int64) {
	s.mu.Lock()
	delete(s.cache, guildID)
	s.mu.Unlock()
}

// InvalidateAll clears every cache entry.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[int64]*cacheEntry)
	s.mu.Unlock()
}

// Guilds lists every guild known to the backend.
func (s *Store) Guilds(ctx context.Context) ([]int64, error) {
	return s.backend.Guilds(ctx)
}
