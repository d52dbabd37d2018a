package query

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// multi-word date values that would otherwise be split by the tokenizer
	datePhraseRe = regexp.MustCompile(`(?i)(date\s*:\s*)(last\s+week|last\s+month|this\s+week|this\s+month)(\s|$)`)
	// long-form absolute dates, e.g. "date: 15 August 2025"
	dateLongRe = regexp.MustCompile(`(?i)(date\s*:\s*)(\d{1,2}\s+[a-z]+\s+\d{4})(\s|$)`)
	// "date : value" with whitespace around the colon
	dateSepRe = regexp.MustCompile(`(?i)\bdate\s*:\s*`)

	valuePrefixRe = regexp.MustCompile(`(?i)\b(site|name|type)\s*:\s*`)
	nextPrefixRe  = regexp.MustCompile(`^\s+\w+:`)
	leadingWordRe = regexp.MustCompile(`^\w+:`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize rewrites multi-word filter values so that the tokenizer keeps each
// value in one token:
//
//	date:last week          -> date:last_week
//	date: 15 August 2025    -> date:15_August_2025
//	date : yesterday        -> date:yesterday
//	site: youtube music     -> site:"youtube music"
//
// site:, name: and type: values run over unquoted words up to the next word:
// token or the end of the query.
func Normalize(q string) string {
	q = collapseDateValue(datePhraseRe, q)
	q = collapseDateValue(dateLongRe, q)
	q = collapseDateSeparator(q)
	return quoteMultiWordValues(q)
}

func collapseDateValue(re *regexp.Regexp, q string) string {
	return re.ReplaceAllStringFunc(q, func(match string) string {
		m := re.FindStringSubmatch(match)
		return stripSpace(m[1]) + whitespaceRe.ReplaceAllString(m[2], "_") + m[3]
	})
}

func collapseDateSeparator(q string) string {
	var b strings.Builder
	cursor := 0
	for _, loc := range dateSepRe.FindAllStringIndex(q, -1) {
		rest := q[loc[1]:]
		// leave "date:" alone when nothing follows or the next word is another filter
		if rest == "" || unicode.IsSpace(rune(rest[0])) || leadingWordRe.MatchString(rest) {
			continue
		}
		b.WriteString(q[cursor:loc[0]])
		b.WriteString(stripSpace(q[loc[0]:loc[1]]))
		cursor = loc[1]
	}
	b.WriteString(q[cursor:])
	return b.String()
}

func quoteMultiWordValues(q string) string {
	var b strings.Builder
	cursor := 0
	for _, loc := range valuePrefixRe.FindAllStringIndex(q, -1) {
		if loc[0] < cursor {
			// inside a value consumed by an earlier prefix
			continue
		}
		end, ok := scanValue(q, loc[1])
		if !ok {
			continue
		}
		value := strings.TrimSpace(q[loc[1]:end])
		b.WriteString(q[cursor:loc[0]])
		b.WriteString(stripSpace(q[loc[0]:loc[1]]))
		if strings.IndexFunc(value, unicode.IsSpace) >= 0 && !strings.HasPrefix(value, `"`) {
			b.WriteString(`"` + value + `"`)
		} else {
			b.WriteString(value)
		}
		cursor = end
	}
	b.WriteString(q[cursor:])
	return b.String()
}

// scanValue returns the end of the shortest run of unquoted words starting at
// pos that is followed by whitespace and a word: token, or by the end of q.
// It fails when the run hits a quote or trailing whitespace first.
func scanValue(q string, pos int) (int, bool) {
	end := wordEnd(q, pos)
	if end == pos {
		return 0, false
	}
	for {
		rest := q[end:]
		if rest == "" || nextPrefixRe.MatchString(rest) {
			return end, true
		}
		next := skipSpace(q, end)
		if next == end {
			return 0, false
		}
		wend := wordEnd(q, next)
		if wend == next {
			return 0, false
		}
		end = wend
	}
}

func wordEnd(q string, pos int) int {
	for pos < len(q) && q[pos] != '"' && !unicode.IsSpace(rune(q[pos])) {
		pos++
	}
	return pos
}

func skipSpace(q string, pos int) int {
	for pos < len(q) && unicode.IsSpace(rune(q[pos])) {
		pos++
	}
	return pos
}

func stripSpace(s string) string {
	return whitespaceRe.ReplaceAllString(s, "")
}
