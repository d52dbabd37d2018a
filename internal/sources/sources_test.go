package sources

import (
	"testing"

	"github.com/user/mindhub/internal/db"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc", db.TypeVideo},
		{"https://youtu.be/abc", db.TypeVideo},
		{"https://vimeo.com/123", db.TypeVideo},
		{"https://x.com/jack/status/1", db.TypeTweet},
		{"https://mobile.twitter.com/jack/status/1", db.TypeTweet},
		{"https://github.com/user/repo", db.TypeRepo},
		{"https://blog.example.com/post", db.TypeArticle},
		{"::not a url", db.TypeArticle},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DetectType(tt.url); got != tt.want {
				t.Errorf("DetectType(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestBookmarkIDIsStable(t *testing.T) {
	a := BookmarkID("https://example.com/a")
	if a != BookmarkID(" https://example.com/a ") {
		t.Error("surrounding whitespace should not change the id")
	}
	if a == BookmarkID("https://example.com/b") {
		t.Error("different URLs must get different ids")
	}
}

func TestRaindropBookmarks(t *testing.T) {
	items, err := parseRaindropItems([]byte(`{"items":[{"_id":1,"title":"Intro to Jazz","link":"https://www.youtube.com/watch?v=x",
		"excerpt":"bebop","note":"rewatch","created":"2025-08-15T10:00:00Z","domain":"youtube.com","tags":["music","jazz"]}]}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	got := raindropBookmarks(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(got))
	}
	b := got[0]
	if b.Tags != "music,jazz" || b.UserNotes != "rewatch" || b.VideoType != db.TypeVideo || b.ChannelName != "youtube.com" {
		t.Errorf("unexpected mapping %+v", b)
	}
	if b.DateAdded != "2025-08-15T10:00:00Z" {
		t.Errorf("DateAdded = %q", b.DateAdded)
	}
}

func TestStarBookmarks(t *testing.T) {
	var star ghStar
	star.StarredAt = "2025-08-01T00:00:00Z"
	star.Repo.FullName = "charmbracelet/bubbletea"
	star.Repo.HTMLURL = "https://github.com/charmbracelet/bubbletea"
	star.Repo.Language = "Go"
	star.Repo.Topics = []string{"tui"}
	star.Repo.Owner.Login = "charmbracelet"

	b := starBookmarks([]ghStar{star})[0]
	if b.VideoType != db.TypeRepo || b.ChannelName != "charmbracelet" || b.Tags != "go,tui" {
		t.Errorf("unexpected mapping %+v", b)
	}
}

func TestTweetBookmarks(t *testing.T) {
	tweets, err := parseBirdOutput([]byte(`[{"id":"42","text":"hello","createdAt":"Fri Aug 15 10:00:00 +0000 2025","author":{"username":"jack"}}]`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	b := tweetBookmarks(tweets)[0]
	if b.OriginalURL != "https://x.com/jack/status/42" || b.ChannelName != "jack" || b.VideoType != db.TypeTweet {
		t.Errorf("unexpected mapping %+v", b)
	}
	if b.DateAdded != "2025-08-15T10:00:00Z" {
		t.Errorf("DateAdded = %q", b.DateAdded)
	}
}
