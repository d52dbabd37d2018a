package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/user/mindhub/internal/db"
)

const githubLastSyncKey = "github_last_sync_ts"

type GitHubSource struct {
	store MetadataStore
}

func NewGitHubSource(store MetadataStore) *GitHubSource {
	return &GitHubSource{store: store}
}

func (g *GitHubSource) Name() string {
	return "github"
}

func (g *GitHubSource) Available() bool {
	_, err := exec.LookPath("gh")
	return err == nil
}

type ghStar struct {
	StarredAt string `json:"starred_at"`
	Repo      struct {
		FullName    string   `json:"full_name"`
		HTMLURL     string   `json:"html_url"`
		Description string   `json:"description"`
		Language    string   `json:"language"`
		Topics      []string `json:"topics"`
		Owner       struct {
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
		} `json:"owner"`
	} `json:"repo"`
}

func (g *GitHubSource) Fetch(ctx context.Context, incremental bool) ([]db.Bookmark, error) {
	// Get last sync timestamp for incremental fetch
	var lastSyncTime time.Time
	if incremental && g.store != nil {
		if ts, _ := g.store.GetMetadata(githubLastSyncKey); ts != "" {
			lastSyncTime, _ = time.Parse(time.RFC3339, ts)
		}
	}

	var allStars []ghStar
	var newestTime time.Time
	page := 1
	perPage := 100 // max per page
	reachedOld := false

	for {
		// sort=created&direction=desc gives newest first
		cmd := exec.CommandContext(ctx, "gh", "api",
			fmt.Sprintf("user/starred?sort=created&direction=desc&per_page=%d&page=%d", perPage, page),
			"-H", "Accept: application/vnd.github.star+json")

		output, err := cmd.Output()
		if err != nil {
			if page == 1 {
				return nil, err
			}
			break // stop on error after first page
		}

		var stars []ghStar
		if err := json.Unmarshal(output, &stars); err != nil {
			// Try concatenated JSON arrays (fallback for older gh versions)
			stars, err = parseMultipleArrays(output)
			if err != nil {
				if page == 1 {
					return nil, err
				}
				break
			}
		}

		if len(stars) == 0 {
			break
		}

		for _, star := range stars {
			starTimeSec := starTime(star).Truncate(time.Second)

			if newestTime.IsZero() || starTimeSec.After(newestTime) {
				newestTime = starTimeSec
			}

			if !lastSyncTime.IsZero() && !starTimeSec.After(lastSyncTime) {
				reachedOld = true
				break
			}

			allStars = append(allStars, star)
		}

		if reachedOld {
			break
		}

		if len(stars) < perPage {
			break // last page
		}
		page++
	}

	// Update last sync timestamp
	if g.store != nil && !newestTime.IsZero() {
		g.store.SetMetadata(githubLastSyncKey, newestTime.Format(time.RFC3339))
	}

	return starBookmarks(allStars), nil
}

func starTime(star ghStar) time.Time {
	if t, err := time.Parse(time.RFC3339, star.StarredAt); err == nil {
		return t
	}
	return time.Now()
}

func starBookmarks(stars []ghStar) []db.Bookmark {
	bookmarks := make([]db.Bookmark, 0, len(stars))
	for _, star := range stars {
		tags := star.Repo.Topics
		if star.Repo.Language != "" {
			tags = append([]string{strings.ToLower(star.Repo.Language)}, tags...)
		}

		bookmarks = append(bookmarks, db.Bookmark{
			ID:           BookmarkID(star.Repo.HTMLURL),
			Title:        star.Repo.FullName,
			Summary:      star.Repo.Description,
			Tags:         strings.Join(tags, ","),
			ChannelName:  star.Repo.Owner.Login,
			OriginalURL:  star.Repo.HTMLURL,
			VideoType:    db.TypeRepo,
			ThumbnailURL: star.Repo.Owner.AvatarURL,
			DateAdded:    db.FormatTimestamp(starTime(star)),
		})
	}
	return bookmarks
}

// parseMultipleArrays handles gh paginate output which can be concatenated arrays
func parseMultipleArrays(data []byte) ([]ghStar, error) {
	var result []ghStar
	decoder := json.NewDecoder(bytes.NewReader(data))
	for decoder.More() {
		var page []ghStar
		if err := decoder.Decode(&page); err != nil {
			return nil, err
		}
		result = append(result, page...)
	}
	return result, nil
}
