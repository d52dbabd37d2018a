// Package daterange resolves date filter values such as "yesterday" or
// "15/08/2025" into an inclusive range of whole days.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var (
	ErrEmpty        = errors.New("empty date value")
	ErrUnrecognized = errors.New("unrecognized date value")
)

// Absolute layouts, tried in order: dd MMMM yyyy, dd-MM-yyyy, dd/MM/yyyy, yyyy-MM-dd.
// Days and months take one or two digits.
var layouts = []string{
	"2 January 2006",
	"2-1-2006",
	"2/1/2006",
	"2006-1-2",
}

// Range is an inclusive span from the first to the last millisecond of its days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range, both ends included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// Resolve turns a date filter value into a Range relative to ref.
//
// Relative values (case-insensitive): today, yesterday, last week and last
// month. "last week" spans from seven days ago through today, eight days in
// all; it is not a calendar week. "last month" is the whole previous calendar
// month. Anything else must parse under one of the absolute layouts and
// resolves to that single day in ref's location.
func Resolve(value string, ref time.Time) (Range, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Range{}, ErrEmpty
	}

	today := now.With(ref)

	switch strings.ToLower(value) {
	case "today":
		return day(ref), nil
	case "yesterday":
		return day(ref.AddDate(0, 0, -1)), nil
	case "last week":
		return Range{
			Start: now.With(ref.AddDate(0, 0, -7)).BeginningOfDay(),
			End:   endOf(today.EndOfDay()),
		}, nil
	case "last month":
		prev := today.BeginningOfMonth().AddDate(0, -1, 0)
		return Range{
			Start: prev,
			End:   endOf(now.With(prev).EndOfMonth()),
		}, nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, ref.Location()); err == nil {
			return day(t), nil
		}
	}
	return Range{}, fmt.Errorf("%w: %q", ErrUnrecognized, value)
}

func day(t time.Time) Range {
	d := now.With(t)
	return Range{Start: d.BeginningOfDay(), End: endOf(d.EndOfDay())}
}

// endOf trims now's nanosecond end-of-period to millisecond precision.
func endOf(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}
