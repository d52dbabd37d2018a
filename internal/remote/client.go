// Package remote talks to the hosted bookmark store over its PostgREST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/user/mindhub/internal/db"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	contentPath = "rest/v1/content"
	searchPath  = "rest/v1/rpc/search_content"

	// allPageSize is the batch size used when downloading every record.
	allPageSize = 1000
)

// substringColumns are the columns checked by the ilike fallback.
var substringColumns = []string{"title", "summary", "tags", "channel_name", "user_notes"}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.Status)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Message)
}

type Options struct {
	URL    string
	APIKey string
	// AccessToken is the user session token. When empty the API key is sent
	// as the bearer token.
	AccessToken string
	Timeout     time.Duration
	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
	// HTTPClient is the base client wrapped with bearer auth. Optional.
	HTTPClient *http.Client
}

// Client is a PostgREST client for the content table.
type Client struct {
	base    *url.URL
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.URL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid remote url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote url: %q", opts.URL)
	}

	token := opts.AccessToken
	if token == "" {
		token = opts.APIKey
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := oauth2.NewClient(ctx, ts)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.Timeout = timeout

	c := &Client{
		base:   base,
		apiKey: opts.APIKey,
		client: client,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// List returns one page of an owner's records, newest first.
func (c *Client) List(ctx context.Context, ownerID string, offset, limit int) ([]db.Bookmark, error) {
	q := ownerQuery(ownerID)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out []db.Bookmark
	if err := c.do(ctx, http.MethodGet, contentPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type searchArgs struct {
	Query     string  `json:"search_query"`
	UserID    string  `json:"user_id_input"`
	Threshold float64 `json:"similarity_threshold"`
	Max       int     `json:"max_results"`
	Offset    int     `json:"offset"`
}

// Similar runs the server-side similarity search procedure.
func (c *Client) Similar(ctx context.Context, ownerID, q string, threshold float64, limit, offset int) ([]db.Bookmark, error) {
	args := searchArgs{
		Query:     q,
		UserID:    ownerID,
		Threshold: threshold,
		Max:       limit,
		Offset:    offset,
	}

	var out []db.Bookmark
	if err := c.do(ctx, http.MethodPost, searchPath, nil, args, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Substring finds records where any text column contains q, case-insensitively.
func (c *Client) Substring(ctx context.Context, ownerID, q string, offset, limit int) ([]db.Bookmark, error) {
	params := ownerQuery(ownerID)
	params.Set("or", substringFilter(q))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var out []db.Bookmark
	if err := c.do(ctx, http.MethodGet, contentPath, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewerThan returns up to limit records added strictly after since, newest first.
func (c *Client) NewerThan(ctx context.Context, ownerID, since string, limit int) ([]db.Bookmark, error) {
	q := ownerQuery(ownerID)
	if since != "" {
		q.Set("date_added", "gt."+since)
	}
	q.Set("limit", strconv.Itoa(limit))

	var out []db.Bookmark
	if err := c.do(ctx, http.MethodGet, contentPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All downloads every record of an owner in batches.
func (c *Client) All(ctx context.Context, ownerID string) ([]db.Bookmark, error) {
	var all []db.Bookmark
	for offset := 0; ; offset += allPageSize {
		page, err := c.List(ctx, ownerID, offset, allPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < allPageSize {
			return all, nil
		}
	}
}

// Insert creates a record and returns it as stored.
func (c *Client) Insert(ctx context.Context, b db.Bookmark) (db.Bookmark, error) {
	var out []db.Bookmark
	if err := c.do(ctx, http.MethodPost, contentPath, nil, b, &out); err != nil {
		return db.Bookmark{}, err
	}
	if len(out) == 0 {
		return b, nil
	}
	return out[0], nil
}

// Upsert writes records in batches, replacing existing rows by id.
func (c *Client) Upsert(ctx context.Context, bookmarks []db.Bookmark) error {
	for start := 0; start < len(bookmarks); start += allPageSize {
		end := min(start+allPageSize, len(bookmarks))
		if err := c.do(ctx, http.MethodPost, contentPath, nil, bookmarks[start:end], nil); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces the mutable fields of the record with b.ID.
func (c *Client) Update(ctx context.Context, b db.Bookmark) error {
	q := url.Values{}
	q.Set("id", "eq."+b.ID)
	return c.do(ctx, http.MethodPatch, contentPath, q, b, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return c.do(ctx, http.MethodDelete, contentPath, q, nil, nil)
}

func ownerQuery(ownerID string) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+ownerID)
	q.Set("order", "date_added.desc")
	return q
}

// substringFilter builds the PostgREST or=(...) expression. Values are double
// quoted so commas and parentheses in q stay literal.
func substringFilter(q string) string {
	pattern := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(q)
	parts := make([]string, len(substringColumns))
	for i, col := range substringColumns {
		parts[i] = fmt.Sprintf(`%s.ilike."*%s*"`, col, pattern)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := c.base.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost && path == contentPath {
		if out != nil {
			req.Header.Set("Prefer", "return=representation")
		} else {
			req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &APIError{Status: status, Message: msg}
}
