package db

import (
	"context"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBulkUpsertReplacesByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.BulkUpsert(ctx, []Bookmark{
		{ID: "a", UserID: "u1", Title: "First", DateAdded: "2025-08-10T00:00:00Z"},
		{ID: "b", UserID: "u1", Title: "Second", DateAdded: "2025-08-11T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// Same id again with a new title
	if err := store.Upsert(ctx, Bookmark{ID: "a", UserID: "u1", Title: "First (edited)", DateAdded: "2025-08-10T00:00:00Z"}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows, got %d", count)
	}

	got, err := store.Get("a")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Title != "First (edited)" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}
}

func TestScanFiltersAndOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.BulkUpsert(ctx, []Bookmark{
		{ID: "old", Title: "Go tips", DateAdded: "2024-01-01T00:00:00Z"},
		{ID: "new", Title: "Go generics", DateAdded: "2025-03-01 10:00:00"},
		{ID: "mid", Title: "Rust book", DateAdded: "2024-06-01T00:00:00Z"},
		{ID: "bad", Title: "Go undated", DateAdded: "not a date"},
	})

	got, err := store.Scan(ctx, func(b Bookmark) bool {
		return strings.Contains(b.Title, "Go")
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"new", "old", "bad"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestLatestAndEvictOldest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.BulkUpsert(ctx, []Bookmark{
		{ID: "1", UserID: "u1", DateAdded: "2025-01-01T00:00:00Z"},
		{ID: "2", UserID: "u1", DateAdded: "2025-02-01T00:00:00Z"},
		{ID: "3", UserID: "u2", DateAdded: "2025-03-01T00:00:00Z"},
	})

	latest, err := store.Latest("u1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest == nil || latest.ID != "2" {
		t.Fatalf("Expected latest id 2, got %+v", latest)
	}

	none, err := store.Latest("nobody")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if none != nil {
		t.Errorf("Expected nil for unknown owner, got %+v", none)
	}

	removed, err := store.EvictOldest(1)
	if err != nil {
		t.Fatalf("EvictOldest failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	if _, err := store.Get("1"); err == nil {
		t.Error("Expected oldest bookmark to be evicted")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)

	v, err := store.GetMetadata("missing")
	if err != nil || v != "" {
		t.Fatalf("Expected empty value for missing key, got %q, %v", v, err)
	}

	if err := store.SetMetadata("last_sync_at", "2025-08-15T00:00:00Z"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	v, _ = store.GetMetadata("last_sync_at")
	if v != "2025-08-15T00:00:00Z" {
		t.Errorf("got %q", v)
	}

	// Clear keeps metadata
	store.Clear()
	v, _ = store.GetMetadata("last_sync_at")
	if v == "" {
		t.Error("Expected metadata to survive Clear")
	}
}

func TestMissingSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.BulkUpsert(ctx, []Bookmark{
		{ID: "1", Summary: "done", DateAdded: "2025-01-01T00:00:00Z"},
		{ID: "2", DateAdded: "2025-02-01T00:00:00Z"},
		{ID: "3", DateAdded: "2025-03-01T00:00:00Z"},
	})

	got, err := store.MissingSummary(1)
	if err != nil {
		t.Fatalf("MissingSummary failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("Expected only newest unsummarized bookmark, got %+v", got)
	}
}
