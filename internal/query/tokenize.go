package query

import (
	"regexp"
	"strings"
	"unicode"
)

var filterPrefixRe = regexp.MustCompile(`(?i)^(text|site|name|tag|type|date):$`)

// Tokenize splits a normalized query on whitespace. A double-quoted run is a
// single token with its quotes kept; a quote without a partner is dropped.
// A quoted run directly after a filter prefix belongs to that token, so
// site:"youtube music" stays whole. After any other word it is a phrase of its own.
func Tokenize(q string) []string {
	var tokens []string
	i := 0
	for i < len(q) {
		c := q[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case c == '"':
			end, ok := closingQuote(q, i)
			if !ok {
				i++
				continue
			}
			tokens = append(tokens, q[i:end])
			i = end
		default:
			start := i
			i = wordEnd(q, i)
			if filterPrefixRe.MatchString(q[start:i]) && i < len(q) && q[i] == '"' {
				if end, ok := closingQuote(q, i); ok {
					i = end
				}
			}
			tokens = append(tokens, q[start:i])
		}
	}
	return tokens
}

// closingQuote returns the index just past the quote pairing with the one at open.
func closingQuote(q string, open int) (int, bool) {
	j := strings.IndexByte(q[open+1:], '"')
	if j < 0 {
		return 0, false
	}
	return open + 1 + j + 1, true
}

func isQuoted(tok string) bool {
	return len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`)
}

func unquote(tok string) string {
	if isQuoted(tok) {
		return tok[1 : len(tok)-1]
	}
	return tok
}
