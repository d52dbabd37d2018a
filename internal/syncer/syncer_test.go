package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/db"
)

var now = time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

type fakeRemote struct {
	since    string
	limit    int
	newer    []db.Bookmark
	all      []db.Bookmark
	newerErr error
}

func (f *fakeRemote) NewerThan(ctx context.Context, ownerID, since string, limit int) ([]db.Bookmark, error) {
	f.since, f.limit = since, limit
	return f.newer, f.newerErr
}

func (f *fakeRemote) All(ctx context.Context, ownerID string) ([]db.Bookmark, error) {
	return f.all, nil
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newSyncer(remote Remote, cache Cache, opts Options) *Syncer {
	opts.OwnerID = "u1"
	opts.Now = func() time.Time { return now }
	return New(remote, cache, opts, zerolog.Nop())
}

func TestSyncOnceFetchesSinceNewestCached(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{
		{ID: "old", UserID: "u1", DateAdded: "2025-08-01T00:00:00Z"},
		{ID: "newest", UserID: "u1", DateAdded: "2025-08-15T10:00:00Z"},
		{ID: "other", UserID: "u2", DateAdded: "2025-08-19T00:00:00Z"},
	})

	remote := &fakeRemote{newer: []db.Bookmark{{ID: "fresh", UserID: "u1", DateAdded: "2025-08-16T00:00:00Z"}}}
	s := newSyncer(remote, store, Options{})

	rep, err := s.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if remote.since != "2025-08-15T10:00:00Z" || remote.limit != DefaultFetchLimit {
		t.Errorf("since=%q limit=%d", remote.since, remote.limit)
	}
	if rep.Fetched != 1 {
		t.Errorf("Fetched = %d, want 1", rep.Fetched)
	}
	if _, err := store.Get("fresh"); err != nil {
		t.Errorf("fresh record not cached: %v", err)
	}

	v, _ := store.GetMetadata(LastSyncKey)
	if v != "2025-08-20T12:00:00Z" {
		t.Errorf("last sync = %q", v)
	}
}

func TestSyncOnceStartsFromEpochOnEmptyCache(t *testing.T) {
	remote := &fakeRemote{}
	s := newSyncer(remote, newTestStore(t), Options{})

	if _, err := s.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if remote.since != "1970-01-01T00:00:00Z" {
		t.Errorf("since = %q", remote.since)
	}
}

func TestSyncOnceEvictsOldestOverCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var seed []db.Bookmark
	for i := 0; i < 10; i++ {
		seed = append(seed, db.Bookmark{
			ID:        fmt.Sprintf("b%d", i),
			UserID:    "u1",
			DateAdded: fmt.Sprintf("2025-08-%02dT00:00:00Z", i+1),
		})
	}
	store.BulkUpsert(ctx, seed)

	s := newSyncer(&fakeRemote{}, store, Options{MaxCacheSize: 5, MaxEvict: 3})
	rep, err := s.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if rep.Evicted != 3 {
		t.Errorf("Evicted = %d, want 3 (capped per pass)", rep.Evicted)
	}
	if _, err := store.Get("b0"); err == nil {
		t.Error("oldest record should be evicted")
	}
	if _, err := store.Get("b9"); err != nil {
		t.Error("newest record should survive")
	}
}

func TestSyncOnceFetchFailureDoesNotStopTrim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{
		{ID: "a", DateAdded: "2025-08-01T00:00:00Z"},
		{ID: "b", DateAdded: "2025-08-02T00:00:00Z"},
	})

	boom := errors.New("offline")
	s := newSyncer(&fakeRemote{newerErr: boom}, store, Options{MaxCacheSize: 1})

	rep, err := s.SyncOnce(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error to be reported, got %v", err)
	}
	if rep.Evicted != 1 {
		t.Errorf("trim should still run, Evicted = %d", rep.Evicted)
	}
}

func TestRecoverReplacesCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{{ID: "stale"}})

	remote := &fakeRemote{all: []db.Bookmark{{ID: "r1"}, {ID: "r2"}}}
	s := newSyncer(remote, store, Options{})

	n, err := s.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if n != 2 {
		t.Errorf("recovered %d, want 2", n)
	}
	if count, _ := store.Count(); count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
	if _, err := store.Get("stale"); err == nil {
		t.Error("stale record should be gone")
	}
}

func TestRecoverKeepsCacheWhenRemoteEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{{ID: "keep"}})

	s := newSyncer(&fakeRemote{}, store, Options{})
	if _, err := s.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if count, _ := store.Count(); count != 1 {
		t.Errorf("cache should be untouched, Count = %d", count)
	}
}

func TestStatusAndDue(t *testing.T) {
	store := newTestStore(t)
	s := newSyncer(&fakeRemote{}, store, Options{Interval: time.Minute})

	if !s.Due() {
		t.Error("a never-synced cache should be due")
	}
	if _, err := s.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if s.Due() {
		t.Error("should not be due right after a sync")
	}

	st := s.Status()
	if !st.LastSync.Equal(now) || st.NextSync != time.Minute || st.Running {
		t.Errorf("unexpected status %+v", st)
	}

	// a new syncer picks the last sync time up from metadata
	again := newSyncer(&fakeRemote{}, store, Options{Interval: time.Minute})
	if !again.Status().LastSync.Equal(now) {
		t.Errorf("last sync not restored: %v", again.Status().LastSync)
	}
}

func TestResetClearsCacheAndLastSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{{ID: "a", UserID: "u1", DateAdded: "2025-08-01T00:00:00Z"}})

	s := newSyncer(&fakeRemote{}, store, Options{})
	if _, err := s.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("expected empty cache, got %d records", n)
	}
	if !s.Due() || !s.Status().LastSync.IsZero() {
		t.Errorf("expected last sync to be forgotten, status %+v", s.Status())
	}
	if v, _ := store.GetMetadata(LastSyncKey); v != "" {
		t.Errorf("last sync metadata = %q, want empty", v)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	s := newSyncer(&fakeRemote{}, newTestStore(t), Options{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
