package db

import (
	"strings"
	"time"
)

// Bookmark is a saved item as stored remotely and mirrored into the local cache.
// JSON names follow the remote column names.
type Bookmark struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Summary      string `json:"summary,omitempty"`
	Tags         string `json:"tags,omitempty"` // comma-joined
	ChannelName  string `json:"channel_name,omitempty"`
	UserNotes    string `json:"user_notes,omitempty"`
	OriginalURL  string `json:"original_url,omitempty"`
	VideoType    string `json:"video_type,omitempty"` // video, article, note, tweet, repo
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DateAdded    string `json:"date_added"`
}

// Content types recognised by the ingestion side.
const (
	TypeVideo   = "video"
	TypeArticle = "article"
	TypeNote    = "note"
	TypeTweet   = "tweet"
	TypeRepo    = "repo"
)

var dateAddedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// AddedAt parses DateAdded. The second return is false when the value is empty
// or in none of the known layouts.
func (b Bookmark) AddedAt() (time.Time, bool) {
	return ParseTimestamp(b.DateAdded)
}

// ParseTimestamp parses the timestamp formats seen in date_added values.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateAddedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way date_added values are written.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NewerFirst reports whether a sorts before b when ordering by date_added
// descending. Unparseable dates sort last.
func NewerFirst(a, b Bookmark) bool {
	ta, oka := a.AddedAt()
	tb, okb := b.AddedAt()
	switch {
	case oka && okb:
		return ta.After(tb)
	case oka:
		return true
	default:
		return false
	}
}
