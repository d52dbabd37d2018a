package sources

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/user/mindhub/internal/db"
)

const raindropLastSyncKey = "raindrop_last_sync_ts"

type RaindropSource struct {
	store MetadataStore
}

func NewRaindropSource(store MetadataStore) *RaindropSource {
	return &RaindropSource{store: store}
}

func (r *RaindropSource) Name() string {
	return "raindrop"
}

func (r *RaindropSource) Available() bool {
	_, err := exec.LookPath("raindrop")
	return err == nil
}

type raindropItem struct {
	ID      int      `json:"_id"`
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Excerpt string   `json:"excerpt"`
	Note    string   `json:"note"`
	Created string   `json:"created"`
	Domain  string   `json:"domain"`
	Type    string   `json:"type"`
	Cover   string   `json:"cover"`
	Tags    []string `json:"tags"`
}

func (r *RaindropSource) Fetch(ctx context.Context, incremental bool) ([]db.Bookmark, error) {
	// Get last sync timestamp for incremental fetch
	var lastSyncTime time.Time
	if incremental && r.store != nil {
		if ts, _ := r.store.GetMetadata(raindropLastSyncKey); ts != "" {
			lastSyncTime, _ = time.Parse(time.RFC3339, ts)
		}
	}

	var allItems []raindropItem
	var newestTime time.Time
	page := 0
	limit := 50 // max per page
	reachedOld := false

	for {
		// Raindrop CLI sorts by -created (newest first) by default
		cmd := exec.CommandContext(ctx, "raindrop", "list", "--json", "--limit", strconv.Itoa(limit), "--page", strconv.Itoa(page))
		output, err := cmd.Output()
		if err != nil {
			if page == 0 {
				return nil, err
			}
			break // stop on error after first page
		}

		items, err := parseRaindropItems(output)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			break
		}

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			// Truncate to seconds for consistent comparison (RFC3339 loses sub-second precision)
			itemTimeSec := raindropTime(item).Truncate(time.Second)

			if newestTime.IsZero() || itemTimeSec.After(newestTime) {
				newestTime = itemTimeSec
			}

			if !lastSyncTime.IsZero() && !itemTimeSec.After(lastSyncTime) {
				reachedOld = true
				break
			}

			allItems = append(allItems, item)
		}

		if reachedOld {
			break
		}

		if len(items) < limit {
			break // last page
		}
		page++
	}

	// Update last sync timestamp
	if r.store != nil && !newestTime.IsZero() {
		r.store.SetMetadata(raindropLastSyncKey, newestTime.Format(time.RFC3339))
	}

	return raindropBookmarks(allItems), nil
}

// parseRaindropItems accepts either a bare array or an {items: [...]} envelope.
func parseRaindropItems(output []byte) ([]raindropItem, error) {
	var items []raindropItem
	if err := json.Unmarshal(output, &items); err == nil {
		return items, nil
	}
	var resp struct {
		Items []raindropItem `json:"items"`
	}
	if err := json.Unmarshal(output, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func raindropTime(item raindropItem) time.Time {
	if t, err := time.Parse(time.RFC3339, item.Created); err == nil {
		return t
	}
	return time.Now()
}

func raindropBookmarks(items []raindropItem) []db.Bookmark {
	bookmarks := make([]db.Bookmark, 0, len(items))
	for _, item := range items {
		typ := db.TypeArticle
		if item.Type == "video" {
			typ = db.TypeVideo
		} else if detected := DetectType(item.Link); detected != db.TypeArticle {
			typ = detected
		}

		channel := item.Domain
		if channel == "" {
			channel = Host(item.Link)
		}

		bookmarks = append(bookmarks, db.Bookmark{
			ID:           BookmarkID(item.Link),
			Title:        item.Title,
			Summary:      item.Excerpt,
			Tags:         strings.Join(item.Tags, ","),
			ChannelName:  channel,
			UserNotes:    item.Note,
			OriginalURL:  item.Link,
			VideoType:    typ,
			ThumbnailURL: item.Cover,
			DateAdded:    db.FormatTimestamp(raindropTime(item)),
		})
	}
	return bookmarks
}
