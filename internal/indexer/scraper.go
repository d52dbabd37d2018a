package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const jinaReaderURL = "https://r.jina.ai/"

// Scraper fetches web content using Jina Reader
type Scraper struct {
	client  *http.Client
	baseURL string
}

func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: jinaReaderURL,
	}
}

// Scrape fetches the content of a URL using Jina Reader
func (s *Scraper) Scrape(ctx context.Context, targetURL string) (string, error) {
	// Jina Reader API: r.jina.ai/<url>
	readerURL := s.baseURL + url.QueryEscape(targetURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readerURL, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("Accept", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jina reader returned status %d", resp.StatusCode)
	}

	// Limit content size to avoid excessive token usage
	const maxContentLen = 50000
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentLen))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// extractTitleFromContent takes the first line of reader output, minus any
// "Title:" prefix, capped at 100 runes.
func extractTitleFromContent(content, fallback string) string {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimSpace(line)
	if len(line) >= 6 && strings.EqualFold(line[:6], "title:") {
		line = strings.TrimSpace(line[6:])
	}
	if line == "" {
		return fallback
	}

	runes := []rune(line)
	if len(runes) > 100 {
		return string(runes[:100])
	}
	return line
}
