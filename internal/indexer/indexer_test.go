package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/config"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/sources"
)

type fakeRemote struct {
	inserted []db.Bookmark
	upserted []db.Bookmark
	updated  []db.Bookmark
}

func (f *fakeRemote) Insert(ctx context.Context, b db.Bookmark) (db.Bookmark, error) {
	f.inserted = append(f.inserted, b)
	return b, nil
}

func (f *fakeRemote) Upsert(ctx context.Context, bookmarks []db.Bookmark) error {
	f.upserted = append(f.upserted, bookmarks...)
	return nil
}

func (f *fakeRemote) Update(ctx context.Context, b db.Bookmark) error {
	f.updated = append(f.updated, b)
	return nil
}

type fakeScraper struct {
	content string
	err     error
}

func (f fakeScraper) Scrape(ctx context.Context, targetURL string) (string, error) {
	return f.content, f.err
}

type fakeSummarizer struct{ calls int }

func (f *fakeSummarizer) Summarize(ctx context.Context, content string) (*SummaryResult, error) {
	f.calls++
	return &SummaryResult{Summary: "A summary", Keywords: "Jazz, Music "}, nil
}

type fakeSource struct {
	name  string
	items []db.Bookmark
	err   error
}

func (f fakeSource) Name() string    { return f.name }
func (f fakeSource) Available() bool { return true }
func (f fakeSource) Fetch(ctx context.Context, incremental bool) ([]db.Bookmark, error) {
	return f.items, f.err
}

func newTestIndexer(t *testing.T, scraper contentScraper, summarizer contentSummarizer) (*Indexer, *fakeRemote, *db.Store) {
	t.Helper()
	store, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	remote := &fakeRemote{}
	ix := New("u1", remote, store, nil, zerolog.Nop())
	ix.scraper = scraper
	ix.summarizer = summarizer
	ix.now = func() time.Time { return time.Date(2025, time.August, 15, 10, 0, 0, 0, time.UTC) }
	return ix, remote, store
}

func TestAddURL(t *testing.T) {
	ix, remote, store := newTestIndexer(t,
		fakeScraper{content: "Title: Intro to Jazz\n\nURL Source: https://youtube.com/watch?v=x"},
		&fakeSummarizer{})

	b, err := ix.AddURL(context.Background(), "https://www.youtube.com/watch?v=x", "rewatch")
	if err != nil {
		t.Fatalf("AddURL failed: %v", err)
	}

	if b.Title != "Intro to Jazz" || b.VideoType != db.TypeVideo || b.ChannelName != "youtube.com" {
		t.Errorf("unexpected record %+v", b)
	}
	if b.Summary != "A summary" || b.Tags != "jazz,music" || b.UserNotes != "rewatch" {
		t.Errorf("summary not applied: %+v", b)
	}
	if b.DateAdded != "2025-08-15T10:00:00Z" || b.UserID != "u1" {
		t.Errorf("unexpected metadata: %+v", b)
	}
	if len(remote.inserted) != 1 {
		t.Errorf("expected one remote insert, got %d", len(remote.inserted))
	}
	if _, err := store.Get(b.ID); err != nil {
		t.Errorf("record not cached: %v", err)
	}
}

func TestAddURLKeepsRecordWhenScrapeFails(t *testing.T) {
	summarizer := &fakeSummarizer{}
	ix, _, _ := newTestIndexer(t, fakeScraper{err: errors.New("timeout")}, summarizer)

	b, err := ix.AddURL(context.Background(), "https://blog.example.com/post", "")
	if err != nil {
		t.Fatalf("AddURL failed: %v", err)
	}
	if b.Title != "https://blog.example.com/post" || b.VideoType != db.TypeArticle {
		t.Errorf("unexpected record %+v", b)
	}
	if summarizer.calls != 0 {
		t.Error("nothing to summarize without content")
	}
}

func TestAddNote(t *testing.T) {
	ix, _, _ := newTestIndexer(t, fakeScraper{}, nil)

	b, err := ix.AddNote(context.Background(), "Groceries", "milk, eggs")
	if err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}
	if b.VideoType != db.TypeNote || b.UserNotes != "milk, eggs" || b.ID == "" {
		t.Errorf("unexpected note %+v", b)
	}

	if _, err := ix.AddNote(context.Background(), "  ", "x"); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestSummarizeFillsMissing(t *testing.T) {
	ix, remote, store := newTestIndexer(t, fakeScraper{content: "page text"}, &fakeSummarizer{})
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{
		{ID: "a", Title: "A", OriginalURL: "https://a.example", DateAdded: "2025-08-01T00:00:00Z"},
		{ID: "b", Title: "B", Summary: "done", DateAdded: "2025-08-02T00:00:00Z"},
	})

	var seen int
	n, err := ix.Summarize(ctx, 0, func(current, total int) { seen = total })
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if n != 1 || seen != 1 || len(remote.updated) != 1 {
		t.Errorf("updated=%d total=%d remote=%d", n, seen, len(remote.updated))
	}

	got, _ := store.Get("a")
	if got.Summary != "A summary" {
		t.Errorf("cache not updated: %+v", got)
	}
}

func TestImportSkipsFailingSource(t *testing.T) {
	ix, remote, store := newTestIndexer(t, fakeScraper{}, nil)

	srcs := []sources.Source{
		fakeSource{name: "broken", err: errors.New("cli missing")},
		fakeSource{name: "github", items: []db.Bookmark{
			{ID: "g1", Title: "repo", DateAdded: "2025-08-01T00:00:00Z"},
		}},
	}

	counts, err := ix.Import(context.Background(), srcs, ImportOptions{Silent: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if counts["github"] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts["broken"]; ok {
		t.Error("failing source should not be counted")
	}
	if len(remote.upserted) != 1 || remote.upserted[0].UserID != "u1" {
		t.Errorf("remote upsert = %+v", remote.upserted)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("cache count = %d", n)
	}
}

func TestImportWithoutSources(t *testing.T) {
	ix, _, _ := newTestIndexer(t, fakeScraper{}, nil)
	if _, err := ix.Import(context.Background(), nil, ImportOptions{Silent: true}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReprocessReplacesSummary(t *testing.T) {
	ix, remote, store := newTestIndexer(t, fakeScraper{content: "fresh page"}, &fakeSummarizer{})
	ctx := context.Background()
	store.BulkUpsert(ctx, []db.Bookmark{
		{ID: "r", Title: "R", Summary: "stale", Tags: "keep", OriginalURL: "https://r.example", DateAdded: "2025-08-01T00:00:00Z"},
	})

	b, err := ix.Reprocess(ctx, "r")
	if err != nil {
		t.Fatalf("Reprocess failed: %v", err)
	}
	if b.Summary != "A summary" || b.Tags != "keep" {
		t.Errorf("unexpected record %+v", b)
	}
	if len(remote.updated) != 1 {
		t.Errorf("expected remote update, got %d", len(remote.updated))
	}

	if _, err := ix.Reprocess(ctx, "missing"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestDisabledSummarizer(t *testing.T) {
	for _, provider := range []string{"", "none", " NONE "} {
		if NewSummarizer(config.LLMConfig{Provider: provider}) != nil {
			t.Errorf("provider %q should disable summaries", provider)
		}
	}
	if NewSummarizer(config.LLMConfig{Provider: "anthropic"}) == nil {
		t.Fatal("anthropic provider should build a summarizer")
	}

	store, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ix := New("u1", &fakeRemote{}, store, NewSummarizer(config.LLMConfig{Provider: "none"}), zerolog.Nop())
	if ix.summarizer != nil {
		t.Fatal("a disabled summarizer must leave the interface nil")
	}
	if _, err := ix.Summarize(context.Background(), 0, nil); err == nil {
		t.Error("expected Summarize to fail without a summarizer")
	}
	b, err := ix.AddNote(context.Background(), "Groceries", "milk")
	if err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}
	if b.Summary != "" {
		t.Errorf("no summary expected, got %q", b.Summary)
	}
}
