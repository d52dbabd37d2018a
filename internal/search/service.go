// Package search decides where a query is answered: the offline cache for
// filtered queries, or the remote store (merged back into the cache) when the
// query carries no structured filters and nothing local matches.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/filter"
	"github.com/user/mindhub/internal/query"
)

const (
	DefaultPageSize            = 200
	DefaultSimilarityThreshold = 0.1
	DefaultDebounce            = 500 * time.Millisecond
)

// Remote is the authoritative store. Offsets and limits are in records.
type Remote interface {
	List(ctx context.Context, ownerID string, offset, limit int) ([]db.Bookmark, error)
	Similar(ctx context.Context, ownerID, q string, threshold float64, limit, offset int) ([]db.Bookmark, error)
	Substring(ctx context.Context, ownerID, q string, offset, limit int) ([]db.Bookmark, error)
}

// Cache is the offline copy. Scan returns matches ordered by date_added descending.
type Cache interface {
	BulkUpsert(ctx context.Context, bookmarks []db.Bookmark) error
	Scan(ctx context.Context, keep func(db.Bookmark) bool) ([]db.Bookmark, error)
}

// Source tells where a result came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

type Options struct {
	OwnerID             string
	PageSize            int
	SimilarityThreshold float64
	// Now is the clock used to resolve relative dates. Defaults to time.Now.
	Now func() time.Time
}

type Request struct {
	Ticket Ticket
	Query  string
	Page   int
}

type Result struct {
	Ticket    Ticket
	Bookmarks []db.Bookmark
	HasMore   bool
	Source    Source
	Filters   query.Filters
	// FilterErr is set when a filter could not be applied and matched nothing.
	FilterErr error
}

type Service struct {
	remote Remote
	cache  Cache
	opts   Options
	parser *query.Parser
	log    zerolog.Logger
}

func NewService(remote Remote, cache Cache, opts Options, log zerolog.Logger) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		remote: remote,
		cache:  cache,
		opts:   opts,
		parser: query.NewParser(log),
		log:    log,
	}
}

// Search answers one query.
//
// Filtered queries are evaluated against the cache only and never paginate.
// Keyword-only queries try the cache first and fall through to remote
// similarity search when nothing local matches. The empty query pages through
// the remote store newest first. Remote results are written to the cache.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	f := s.parser.Parse(req.Query)
	res := Result{Ticket: req.Ticket, Filters: f}

	if f.HasFilters() {
		m := filter.Compile(f, s.opts.Now())
		if err := m.Err(); err != nil {
			s.log.Warn().Err(err).Str("query", req.Query).Msg("filter matches nothing")
			res.FilterErr = err
		}
		return s.local(ctx, res, m)
	}

	if strings.TrimSpace(req.Query) == "" {
		return s.list(ctx, res, req.Page)
	}

	res, err := s.local(ctx, res, filter.Compile(filter.KeywordsOnly(f), s.opts.Now()))
	if err != nil || len(res.Bookmarks) > 0 {
		return res, err
	}
	return s.similar(ctx, res, strings.TrimSpace(req.Query), req.Page)
}

// local scans the cache. With an owner set, other owners' records are skipped.
func (s *Service) local(ctx context.Context, res Result, m *filter.Matcher) (Result, error) {
	owner := s.opts.OwnerID
	found, err := s.cache.Scan(ctx, func(b db.Bookmark) bool {
		return (owner == "" || b.UserID == owner) && m.Match(b)
	})
	if err != nil {
		return res, fmt.Errorf("failed to scan cache: %w", err)
	}
	res.Bookmarks = found
	res.Source = SourceLocal
	return res, nil
}

func (s *Service) list(ctx context.Context, res Result, page int) (Result, error) {
	size := s.opts.PageSize
	found, err := s.remote.List(ctx, s.opts.OwnerID, page*size, size)
	if err != nil {
		return res, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return s.merge(ctx, res, found, SourceRemote)
}

func (s *Service) similar(ctx context.Context, res Result, q string, page int) (Result, error) {
	size := s.opts.PageSize
	offset := page * size

	found, err := s.remote.Similar(ctx, s.opts.OwnerID, q, s.opts.SimilarityThreshold, size, offset)
	if err == nil {
		return s.merge(ctx, res, found, SourceRemote)
	}

	s.log.Warn().Err(err).Str("query", q).Msg("similarity search failed, falling back to substring search")
	found, err = s.remote.Substring(ctx, s.opts.OwnerID, q, offset, size)
	if err != nil {
		return res, fmt.Errorf("search failed: %w", err)
	}
	return s.merge(ctx, res, found, SourceFallback)
}

func (s *Service) merge(ctx context.Context, res Result, found []db.Bookmark, src Source) (Result, error) {
	if err := s.cache.BulkUpsert(ctx, found); err != nil {
		return res, fmt.Errorf("failed to update cache: %w", err)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return db.NewerFirst(found[i], found[j])
	})

	s.log.Debug().Int("count", len(found)).Str("source", string(src)).Msg("remote results merged")
	res.Bookmarks = found
	res.HasMore = len(found) == s.opts.PageSize
	res.Source = src
	return res, nil
}
