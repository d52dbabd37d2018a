package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/user/mindhub/internal/db"
)

// Source defines the interface for bookmark sources
type Source interface {
	// Name returns the source identifier (x, raindrop, github)
	Name() string
	// Fetch retrieves bookmarks from the source
	// When incremental=true, only fetch items newer than last sync timestamp
	// When incremental=false, fetch all items (full reimport)
	Fetch(ctx context.Context, incremental bool) ([]db.Bookmark, error)
	// Available checks if the source CLI is installed
	Available() bool
}

// MetadataStore persists per-source sync watermarks.
type MetadataStore interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mindhub"))

// BookmarkID derives a stable record id from a URL so re-imports update
// instead of duplicating.
func BookmarkID(link string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.TrimSpace(link))).String()
}

// Host returns the host of link without a leading www.
func Host(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// DetectType guesses the content type of a saved URL.
func DetectType(link string) string {
	host := Host(link)
	switch {
	case host == "youtu.be" || strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "vimeo.com"):
		return db.TypeVideo
	case host == "x.com" || host == "twitter.com" || strings.HasSuffix(host, ".twitter.com"):
		return db.TypeTweet
	case host == "github.com":
		return db.TypeRepo
	default:
		return db.TypeArticle
	}
}
