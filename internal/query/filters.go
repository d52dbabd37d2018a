// Package query parses the advanced search syntax into structured filters.
//
// A query mixes free keywords with prefixed filters and quoted phrases:
//
//	site:youtube date:last week tag:music "exact phrase" keyword1 keyword2
//
// Recognised prefixes are text:, site:, name:, tag:, type: and date:, matched
// case-insensitively with optional whitespace around the colon. A double-quoted
// token that is not a filter is an exact title phrase. A + inside a token splits
// keywords (and separates a date value from a trailing keyword).
package query

// Filters is the structured form of a query. Nil pointers are absent filters.
type Filters struct {
	Keywords []string `json:"keywords"`
	Text     *string  `json:"text"`
	Site     *string  `json:"site"`
	Name     *string  `json:"name"`
	Tag      *string  `json:"tag"`
	Type     *string  `json:"type"`
	Date     *string  `json:"date"`
	Exact    *string  `json:"exact"`
}

// Present reports whether a filter value is set to something non-empty.
// An empty value (e.g. a bare "site:") constrains nothing.
func Present(v *string) bool {
	return v != nil && *v != ""
}

// HasFilters reports whether any structured filter is present. Keyword-only
// queries have none.
func (f Filters) HasFilters() bool {
	for _, v := range []*string{f.Text, f.Site, f.Name, f.Tag, f.Type, f.Date, f.Exact} {
		if Present(v) {
			return true
		}
	}
	return false
}

// HasFilters parses q and reports whether it carries any structured filter.
func HasFilters(q string) bool {
	return Parse(q).HasFilters()
}

func str(s string) *string {
	return &s
}
