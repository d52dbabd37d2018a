package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/user/mindhub/internal/db"
)

// bird uses Twitter's Ruby-style format: "Mon Jan 02 15:04:05 +0000 2006"
const twitterTimeFormat = "Mon Jan 02 15:04:05 -0700 2006"

type TwitterSource struct{}

func NewTwitterSource() *TwitterSource {
	return &TwitterSource{}
}

func (t *TwitterSource) Name() string {
	return "x"
}

func (t *TwitterSource) Available() bool {
	_, err := exec.LookPath("bird")
	return err == nil
}

// birdBookmark matches the JSON schema from bird CLI --json output
type birdBookmark struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Author    struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"author"`
}

// birdResponse handles paginated response: { tweets: [...], nextCursor: "..." }
type birdResponse struct {
	Tweets     []birdBookmark `json:"tweets"`
	NextCursor string         `json:"nextCursor"`
}

// Fetch always returns every bookmark; bird has no since filter, so the
// incremental flag is ignored and upserts dedupe by id.
func (t *TwitterSource) Fetch(ctx context.Context, incremental bool) ([]db.Bookmark, error) {
	// bird output can exceed 64KB, so stream it to a temp file
	tmpFile, err := os.CreateTemp("", "bird-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	cmd := exec.CommandContext(ctx, "bird", "bookmarks", "--all", "--json")
	cmd.Stdout = tmpFile
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("bird bookmarks failed: %w", err)
	}

	output, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read bird output: %w", err)
	}

	tweets, err := parseBirdOutput(output)
	if err != nil {
		return nil, err
	}
	return tweetBookmarks(tweets), nil
}

func parseBirdOutput(output []byte) ([]birdBookmark, error) {
	var resp birdResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		// Try parsing as direct array (fallback for older versions)
		var tweets []birdBookmark
		if arrErr := json.Unmarshal(output, &tweets); arrErr != nil {
			return nil, fmt.Errorf("failed to parse bird output: %w", err)
		}
		return tweets, nil
	}
	return resp.Tweets, nil
}

func tweetBookmarks(tweets []birdBookmark) []db.Bookmark {
	bookmarks := make([]db.Bookmark, 0, len(tweets))
	for _, tweet := range tweets {
		createdAt := time.Now()
		if parsed, err := time.Parse(twitterTimeFormat, tweet.CreatedAt); err == nil {
			createdAt = parsed
		}

		title := []rune(tweet.Text)
		if len(title) > 100 {
			title = append(title[:100], []rune("...")...)
		}

		link := fmt.Sprintf("https://x.com/%s/status/%s", tweet.Author.Username, tweet.ID)

		bookmarks = append(bookmarks, db.Bookmark{
			ID:          BookmarkID(link),
			Title:       string(title),
			Summary:     tweet.Text,
			ChannelName: tweet.Author.Username,
			OriginalURL: link,
			VideoType:   db.TypeTweet,
			DateAdded:   db.FormatTimestamp(createdAt),
		})
	}
	return bookmarks
}
