package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/sources"
)

// Remote is the part of the remote store ingestion writes to.
type Remote interface {
	Insert(ctx context.Context, b db.Bookmark) (db.Bookmark, error)
	Upsert(ctx context.Context, bookmarks []db.Bookmark) error
	Update(ctx context.Context, b db.Bookmark) error
}

// Cache is the part of the local cache ingestion writes to.
type Cache interface {
	BulkUpsert(ctx context.Context, bookmarks []db.Bookmark) error
	MissingSummary(limit int) ([]db.Bookmark, error)
	Get(id string) (*db.Bookmark, error)
}

type contentScraper interface {
	Scrape(ctx context.Context, targetURL string) (string, error)
}

type contentSummarizer interface {
	Summarize(ctx context.Context, content string) (*SummaryResult, error)
}

// ImportOptions configures import behavior
type ImportOptions struct {
	Force     bool // Full reimport (vs incremental)
	Summarize bool // Summarize imported items that arrive without a summary
	Silent    bool // Suppress all output (for TUI background refresh)
}

// Indexer adds records to the remote store and mirrors them into the cache.
type Indexer struct {
	ownerID    string
	remote     Remote
	cache      Cache
	scraper    contentScraper
	summarizer contentSummarizer
	log        zerolog.Logger
	now        func() time.Time
}

func New(ownerID string, remote Remote, cache Cache, summarizer *Summarizer, log zerolog.Logger) *Indexer {
	ix := &Indexer{
		ownerID: ownerID,
		remote:  remote,
		cache:   cache,
		scraper: NewScraper(),
		log:     log,
		now:     time.Now,
	}
	// a nil *Summarizer must not become a non-nil interface
	if summarizer != nil {
		ix.summarizer = summarizer
	}
	return ix
}

// AddURL scrapes and summarizes link, then stores it. Scrape and summary
// failures are logged and the record is saved with what is known.
func (ix *Indexer) AddURL(ctx context.Context, link, notes string) (db.Bookmark, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return db.Bookmark{}, errors.New("url is empty")
	}

	b := db.Bookmark{
		ID:          sources.BookmarkID(link),
		UserID:      ix.ownerID,
		Title:       link, // Will be updated after scraping
		UserNotes:   notes,
		OriginalURL: link,
		VideoType:   sources.DetectType(link),
		ChannelName: sources.Host(link),
		DateAdded:   db.FormatTimestamp(ix.now()),
	}

	content, err := ix.scraper.Scrape(ctx, link)
	if err != nil {
		ix.log.Warn().Err(err).Str("url", link).Msg("could not scrape URL")
	} else {
		b.Title = extractTitleFromContent(content, link)
		ix.summarize(ctx, &b, content)
	}

	return ix.store(ctx, b)
}

// AddNote stores a free-text note.
func (ix *Indexer) AddNote(ctx context.Context, title, body string) (db.Bookmark, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return db.Bookmark{}, errors.New("note title is empty")
	}

	b := db.Bookmark{
		ID:        uuid.NewString(),
		UserID:    ix.ownerID,
		Title:     title,
		UserNotes: body,
		VideoType: db.TypeNote,
		DateAdded: db.FormatTimestamp(ix.now()),
	}
	if strings.TrimSpace(body) != "" {
		ix.summarize(ctx, &b, title+"\n\n"+body)
	}

	return ix.store(ctx, b)
}

func (ix *Indexer) store(ctx context.Context, b db.Bookmark) (db.Bookmark, error) {
	stored, err := ix.remote.Insert(ctx, b)
	if err != nil {
		return b, fmt.Errorf("failed to save to remote: %w", err)
	}
	if err := ix.cache.BulkUpsert(ctx, []db.Bookmark{stored}); err != nil {
		return stored, fmt.Errorf("failed to update cache: %w", err)
	}
	return stored, nil
}

// summarize fills summary and tags from content. Existing tags are kept.
func (ix *Indexer) summarize(ctx context.Context, b *db.Bookmark, content string) bool {
	if ix.summarizer == nil {
		return false
	}
	result, err := ix.summarizer.Summarize(ctx, content)
	if err != nil {
		ix.log.Warn().Err(err).Str("id", b.ID).Msg("summarization failed")
		return false
	}
	if result.Summary == "" {
		return false
	}
	b.Summary = result.Summary
	if b.Tags == "" {
		b.Tags = result.Tags()
	}
	return true
}

// Summarize regenerates summaries for cached records that have none and
// pushes them to the remote. A limit of 0 processes all of them. It returns
// how many records were updated.
func (ix *Indexer) Summarize(ctx context.Context, limit int, progress func(current, total int)) (int, error) {
	if ix.summarizer == nil {
		return 0, errors.New("no summarizer configured")
	}

	pending, err := ix.cache.MissingSummary(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending items: %w", err)
	}

	var updated int
	for i, b := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if progress != nil {
			progress(i+1, len(pending))
		}

		if !ix.resummarize(ctx, &b) {
			continue
		}
		if err := ix.remote.Update(ctx, b); err != nil {
			ix.log.Warn().Err(err).Str("id", b.ID).Msg("failed to update remote")
			continue
		}
		if err := ix.cache.BulkUpsert(ctx, []db.Bookmark{b}); err != nil {
			return updated, fmt.Errorf("failed to update cache: %w", err)
		}
		updated++
	}
	return updated, nil
}

// Reprocess re-scrapes and re-summarizes one record, replacing its summary.
func (ix *Indexer) Reprocess(ctx context.Context, id string) (db.Bookmark, error) {
	if ix.summarizer == nil {
		return db.Bookmark{}, errors.New("no summarizer configured")
	}

	cached, err := ix.cache.Get(id)
	if err != nil {
		return db.Bookmark{}, fmt.Errorf("bookmark %s not found in cache: %w", id, err)
	}

	b := *cached
	b.Summary = ""
	if !ix.resummarize(ctx, &b) {
		return b, errors.New("no summary generated")
	}
	if err := ix.remote.Update(ctx, b); err != nil {
		return b, fmt.Errorf("failed to update remote: %w", err)
	}
	if err := ix.cache.BulkUpsert(ctx, []db.Bookmark{b}); err != nil {
		return b, fmt.Errorf("failed to update cache: %w", err)
	}
	return b, nil
}

// resummarize summarizes the page behind b, or its title and notes when
// there is no page to fetch.
func (ix *Indexer) resummarize(ctx context.Context, b *db.Bookmark) bool {
	content := b.Title + "\n\n" + b.UserNotes
	if b.OriginalURL != "" && b.VideoType != db.TypeNote {
		scraped, err := ix.scraper.Scrape(ctx, b.OriginalURL)
		if err != nil {
			ix.log.Warn().Err(err).Str("url", b.OriginalURL).Msg("could not scrape URL")
		} else {
			content = scraped
		}
	}
	return ix.summarize(ctx, b, content)
}

// Import pulls bookmarks from each source into the remote store and the cache.
// A failing source is reported and skipped. It returns per-source counts.
func (ix *Indexer) Import(ctx context.Context, srcs []sources.Source, opts ImportOptions) (map[string]int, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("no sources available")
	}

	// incremental = !force (default is incremental)
	incremental := !opts.Force

	counts := make(map[string]int)
	for _, src := range srcs {
		if !opts.Silent {
			fmt.Printf("Fetching from %s...\n", src.Name())
		}

		bookmarks, err := src.Fetch(ctx, incremental)
		if err != nil {
			if !opts.Silent {
				fmt.Printf("Error fetching from %s: %v\n", src.Name(), err)
			}
			ix.log.Error().Err(err).Str("source", src.Name()).Msg("import failed")
			continue
		}
		if len(bookmarks) == 0 {
			counts[src.Name()] = 0
			continue
		}

		for i := range bookmarks {
			bookmarks[i].UserID = ix.ownerID
		}

		if opts.Summarize {
			for i := range bookmarks {
				if bookmarks[i].Summary == "" {
					ix.summarize(ctx, &bookmarks[i], bookmarks[i].Title+"\n\n"+bookmarks[i].UserNotes)
				}
				printProgress(i+1, len(bookmarks), "Summarizing", opts.Silent)
			}
			if !opts.Silent {
				fmt.Println()
			}
		}

		if err := ix.remote.Upsert(ctx, bookmarks); err != nil {
			return counts, fmt.Errorf("failed to save %s items to remote: %w", src.Name(), err)
		}
		if err := ix.cache.BulkUpsert(ctx, bookmarks); err != nil {
			return counts, fmt.Errorf("failed to update cache: %w", err)
		}
		counts[src.Name()] = len(bookmarks)
	}

	if !opts.Silent {
		for name, n := range counts {
			fmt.Printf("Imported %d %s items\n", n, name)
		}
	}
	return counts, nil
}

func printProgress(current, total int, prefix string, silent bool) {
	if silent {
		return
	}
	pct := float64(current) / float64(total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * float64(current) / float64(total))

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	fmt.Printf("\r%s [%s] %d/%d (%.0f%%)", prefix, bar, current, total, pct)
}

// PrintProgress renders a progress bar on stdout.
func PrintProgress(current, total int, prefix string) {
	printProgress(current, total, prefix, false)
}
