// Package filter evaluates parsed query filters against cached bookmarks.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/mindhub/internal/daterange"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/query"
)

// ErrInvalidDate marks a date filter that is present but cannot be resolved.
// Such a filter matches nothing.
var ErrInvalidDate = errors.New("invalid date filter")

// Matcher is a compiled set of filters. All present constraints must hold.
type Matcher struct {
	f        query.Filters
	keywords []string
	dates    *daterange.Range
	err      error
}

// Compile lowercases the filter values and resolves the date filter against ref.
func Compile(f query.Filters, ref time.Time) *Matcher {
	m := &Matcher{f: f}

	for _, kw := range f.Keywords {
		m.keywords = append(m.keywords, strings.ToLower(kw))
	}

	if query.Present(f.Date) {
		r, err := daterange.Resolve(*f.Date, ref)
		if err != nil {
			m.err = fmt.Errorf("%w: %v", ErrInvalidDate, err)
		} else {
			m.dates = &r
		}
	}
	return m
}

// Err reports why the matcher rejects everything, if it does.
func (m *Matcher) Err() error {
	return m.err
}

// Match reports whether b satisfies every present filter.
func (m *Matcher) Match(b db.Bookmark) bool {
	if m.err != nil {
		return false
	}

	f := m.f
	if query.Present(f.Text) && !contains(b.UserNotes, *f.Text) {
		return false
	}
	if query.Present(f.Site) && !containsAny(b.OriginalURL, *f.Site) {
		return false
	}
	if query.Present(f.Name) && !containsAny(b.ChannelName, *f.Name) {
		return false
	}
	if query.Present(f.Tag) && !contains(b.Tags, *f.Tag) {
		return false
	}
	if query.Present(f.Type) && !strings.EqualFold(b.VideoType, *f.Type) {
		return false
	}
	if query.Present(f.Exact) && !contains(b.Title, *f.Exact) {
		return false
	}
	if m.dates != nil {
		added, ok := b.AddedAt()
		if !ok || !m.dates.Contains(added) {
			return false
		}
	}

	for _, kw := range m.keywords {
		if !anyField(b, kw) {
			return false
		}
	}
	return true
}

// Matches is the one-shot form of Compile(f, time.Now()).Match(b).
func Matches(b db.Bookmark, f query.Filters) bool {
	return Compile(f, time.Now()).Match(b)
}

// KeywordsOnly drops every structured filter and keeps the keywords.
func KeywordsOnly(f query.Filters) query.Filters {
	return query.Filters{Keywords: f.Keywords}
}

// contains is a case-insensitive substring test.
func contains(field, value string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(value))
}

// containsAny splits value on whitespace and matches if any piece is contained.
func containsAny(field, value string) bool {
	field = strings.ToLower(field)
	for _, part := range strings.Fields(strings.ToLower(value)) {
		if strings.Contains(field, part) {
			return true
		}
	}
	return false
}

// anyField checks a lowercased keyword against the free-text fields.
func anyField(b db.Bookmark, kw string) bool {
	for _, field := range []string{b.Title, b.Summary, b.Tags, b.ChannelName, b.UserNotes} {
		if strings.Contains(strings.ToLower(field), kw) {
			return true
		}
	}
	return false
}
