package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the local offline cache of bookmarks.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "mindhub.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS content (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		channel_name TEXT NOT NULL DEFAULT '',
		user_notes TEXT NOT NULL DEFAULT '',
		original_url TEXT NOT NULL DEFAULT '',
		video_type TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		date_added TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_content_user_id ON content(user_id);
	CREATE INDEX IF NOT EXISTS idx_content_date_added ON content(date_added);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

const contentColumns = `id, user_id, title, summary, tags, channel_name, user_notes, original_url, video_type, thumbnail_url, date_added`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(r rowScanner) (Bookmark, error) {
	var b Bookmark
	err := r.Scan(&b.ID, &b.UserID, &b.Title, &b.Summary, &b.Tags, &b.ChannelName,
		&b.UserNotes, &b.OriginalURL, &b.VideoType, &b.ThumbnailURL, &b.DateAdded)
	return b, err
}

// BulkUpsert writes all bookmarks in one transaction, replacing existing rows by id.
func (s *Store) BulkUpsert(ctx context.Context, bookmarks []Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO content (`+contentColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		title = excluded.title,
		summary = excluded.summary,
		tags = excluded.tags,
		channel_name = excluded.channel_name,
		user_notes = excluded.user_notes,
		original_url = excluded.original_url,
		video_type = excluded.video_type,
		thumbnail_url = excluded.thumbnail_url,
		date_added = excluded.date_added
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bookmarks {
		if _, err := stmt.ExecContext(ctx,
			b.ID, b.UserID, b.Title, b.Summary, b.Tags, b.ChannelName,
			b.UserNotes, b.OriginalURL, b.VideoType, b.ThumbnailURL, b.DateAdded,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Upsert writes a single bookmark.
func (s *Store) Upsert(ctx context.Context, b Bookmark) error {
	return s.BulkUpsert(ctx, []Bookmark{b})
}

// Scan returns every cached bookmark for which keep returns true, newest first.
func (s *Store) Scan(ctx context.Context, keep func(Bookmark) bool) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM content`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(b) {
			bookmarks = append(bookmarks, b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// date_added is free-form text, so order on parsed values rather than in SQL
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return NewerFirst(bookmarks[i], bookmarks[j])
	})
	return bookmarks, nil
}

func (s *Store) Get(id string) (*Bookmark, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	b, err := scanBookmark(row)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM content WHERE id = ?`, id)
	return err
}

// List returns up to limit bookmarks ordered by date_added descending.
func (s *Store) List(limit int) ([]Bookmark, error) {
	rows, err := s.db.Query(`SELECT `+contentColumns+` FROM content ORDER BY date_added DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// Latest returns the most recently added bookmark of an owner, or nil when the
// cache holds none.
func (s *Store) Latest(userID string) (*Bookmark, error) {
	owned, err := s.Scan(context.Background(), func(b Bookmark) bool {
		return b.UserID == userID
	})
	if err != nil {
		return nil, err
	}
	for _, b := range owned {
		if _, ok := b.AddedAt(); ok {
			return &b, nil
		}
	}
	return nil, nil
}

// EvictOldest deletes up to n of the oldest bookmarks and returns how many were removed.
func (s *Store) EvictOldest(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`
		DELETE FROM content WHERE id IN (
			SELECT id FROM content ORDER BY date_added ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	return int(removed), err
}

// Clear removes every cached bookmark. Metadata is kept.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM content`)
	return err
}

// MissingSummary returns bookmarks without a summary, newest first. A limit
// of 0 returns all of them.
func (s *Store) MissingSummary(limit int) ([]Bookmark, error) {
	missing, err := s.Scan(context.Background(), func(b Bookmark) bool {
		return b.Summary == ""
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}
	return missing, nil
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM content`).Scan(&count)
	return count, err
}
