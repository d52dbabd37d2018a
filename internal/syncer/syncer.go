// Package syncer keeps the local cache in step with the remote store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/db"
	"golang.org/x/sync/errgroup"
)

const LastSyncKey = "last_sync_at"

const (
	DefaultInterval     = 5 * time.Minute
	DefaultFetchLimit   = 1000
	DefaultMaxCacheSize = 50000
	DefaultMaxEvict     = 1000
)

var epoch = time.Unix(0, 0).UTC()

type Remote interface {
	NewerThan(ctx context.Context, ownerID, since string, limit int) ([]db.Bookmark, error)
	All(ctx context.Context, ownerID string) ([]db.Bookmark, error)
}

type Cache interface {
	BulkUpsert(ctx context.Context, bookmarks []db.Bookmark) error
	Latest(userID string) (*db.Bookmark, error)
	Count() (int, error)
	EvictOldest(n int) (int, error)
	Clear() error
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

type Options struct {
	OwnerID      string
	Interval     time.Duration
	FetchLimit   int
	MaxCacheSize int
	MaxEvict     int
	Now          func() time.Time
}

type Status struct {
	Running  bool
	LastSync time.Time
	// NextSync is how long until the next scheduled pass, zero when due.
	NextSync time.Duration
}

// Report summarises one sync pass.
type Report struct {
	Fetched int
	Evicted int
}

type Syncer struct {
	remote Remote
	cache  Cache
	opts   Options
	log    zerolog.Logger

	mu       sync.Mutex
	running  bool
	syncing  bool
	lastSync time.Time
}

func New(remote Remote, cache Cache, opts Options, log zerolog.Logger) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = DefaultFetchLimit
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = DefaultMaxCacheSize
	}
	if opts.MaxEvict <= 0 {
		opts.MaxEvict = DefaultMaxEvict
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Syncer{remote: remote, cache: cache, opts: opts, log: log}
	if v, err := cache.GetMetadata(LastSyncKey); err == nil && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.lastSync = t
		}
	}
	return s
}

// SyncOnce fetches new remote records and trims the cache, concurrently.
// Both steps always run to completion; their errors are joined.
func (s *Syncer) SyncOnce(ctx context.Context) (Report, error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		s.log.Debug().Msg("sync already in progress, skipping")
		return Report{}, nil
	}
	s.syncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	var (
		rep                Report
		fetchErr, evictErr error
		g                  errgroup.Group
	)
	g.Go(func() error {
		rep.Fetched, fetchErr = s.fetchNew(ctx)
		if fetchErr != nil {
			s.log.Error().Err(fetchErr).Msg("failed to fetch new records")
		}
		return nil
	})
	g.Go(func() error {
		rep.Evicted, evictErr = s.trim()
		if evictErr != nil {
			s.log.Error().Err(evictErr).Msg("failed to trim cache")
		}
		return nil
	})
	g.Wait()

	now := s.opts.Now()
	s.mu.Lock()
	s.lastSync = now
	s.mu.Unlock()
	if err := s.cache.SetMetadata(LastSyncKey, now.UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn().Err(err).Msg("failed to record sync time")
	}

	s.log.Info().Int("fetched", rep.Fetched).Int("evicted", rep.Evicted).Msg("sync completed")
	return rep, errors.Join(fetchErr, evictErr)
}

func (s *Syncer) fetchNew(ctx context.Context) (int, error) {
	since := epoch
	latest, err := s.cache.Latest(s.opts.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read newest cached record: %w", err)
	}
	if latest != nil {
		if t, ok := latest.AddedAt(); ok {
			since = t
		}
	}

	fresh, err := s.remote.NewerThan(ctx, s.opts.OwnerID, db.FormatTimestamp(since), s.opts.FetchLimit)
	if err != nil {
		return 0, err
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.cache.BulkUpsert(ctx, fresh); err != nil {
		return 0, fmt.Errorf("failed to store new records: %w", err)
	}
	return len(fresh), nil
}

func (s *Syncer) trim() (int, error) {
	count, err := s.cache.Count()
	if err != nil {
		return 0, err
	}
	if count <= s.opts.MaxCacheSize {
		return 0, nil
	}
	return s.cache.EvictOldest(min(count-s.opts.MaxCacheSize, s.opts.MaxEvict))
}

// Run syncs immediately and then every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("sync service already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncOnce(ctx); err != nil {
			s.log.Warn().Err(err).Msg("sync pass finished with errors")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Due reports whether the last pass is older than the interval.
func (s *Syncer) Due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync.IsZero() || s.opts.Now().Sub(s.lastSync) > s.opts.Interval
}

// Recover replaces the cache with every remote record of the owner. The cache
// is left untouched when the remote returns nothing.
func (s *Syncer) Recover(ctx context.Context) (int, error) {
	all, err := s.remote.All(ctx, s.opts.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to download records: %w", err)
	}
	if len(all) == 0 {
		s.log.Warn().Msg("remote store returned no records, cache left as is")
		return 0, nil
	}

	if err := s.cache.Clear(); err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := s.cache.BulkUpsert(ctx, all); err != nil {
		return 0, fmt.Errorf("failed to restore cache: %w", err)
	}
	s.log.Info().Int("count", len(all)).Msg("cache recovered from remote")
	return len(all), nil
}

// Reset empties the cache and forgets the last sync so the next pass starts
// from scratch.
func (s *Syncer) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncing {
		return errors.New("sync in progress")
	}
	if err := s.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := s.cache.SetMetadata(LastSyncKey, ""); err != nil {
		return fmt.Errorf("failed to reset last sync: %w", err)
	}
	s.lastSync = time.Time{}
	s.log.Info().Msg("cache cleared")
	return nil
}

func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, LastSync: s.lastSync}
	if !s.lastSync.IsZero() {
		if left := s.opts.Interval - s.opts.Now().Sub(s.lastSync); left > 0 {
			st.NextSync = left
		}
	}
	return st
}
