package query

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var filterRe = regexp.MustCompile(`(?is)^(text|site|name|tag|type|date)\s*:\s*(.*)$`)

// minDateLen is the shortest date value worth resolving ("dd" or "x" are typos).
const minDateLen = 3

// continuation names the multi-word filter that bare tokens are appended to.
type continuation int

const (
	contNone continuation = iota
	contSite
	contName
	contType
)

// Parser turns query strings into Filters. The zero value is not usable; use
// NewParser or the package-level Parse.
type Parser struct {
	log zerolog.Logger
}

func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

var defaultParser = NewParser(zerolog.Nop())

// Parse parses q with a parser that discards diagnostics.
func Parse(q string) Filters {
	return defaultParser.Parse(q)
}

// Parse never fails: malformed pieces are dropped or treated as keywords.
func (p *Parser) Parse(q string) Filters {
	f := Filters{Keywords: []string{}}
	if strings.TrimSpace(q) == "" {
		return f
	}

	mode := contNone
	for _, tok := range Tokenize(Normalize(q)) {
		mode = p.step(&f, mode, tok)
	}
	return f
}

// step applies one token and returns the continuation mode for the next one.
func (p *Parser) step(f *Filters, mode continuation, tok string) continuation {
	clean := unquote(tok)

	if m := filterRe.FindStringSubmatch(clean); m != nil {
		name := strings.ToLower(m[1])
		value := unquote(strings.TrimSpace(m[2]))

		switch name {
		case "text":
			f.Text = str(value)
			return contNone
		case "site":
			f.Site = str(value)
			return contSite
		case "name":
			f.Name = str(value)
			return contName
		case "tag":
			f.Tag = str(value)
			return contNone
		case "type":
			f.Type = str(value)
			return contType
		case "date":
			p.applyDate(f, tok, value)
			return contNone
		}
	}

	if isQuoted(tok) {
		f.Exact = str(clean)
		return contNone
	}

	switch mode {
	case contSite:
		f.Site = str(*f.Site + " " + clean)
	case contName:
		f.Name = str(*f.Name + " " + clean)
	case contType:
		f.Type = str(*f.Type + " " + clean)
	default:
		f.Keywords = append(f.Keywords, splitKeywords(clean)...)
	}
	return mode
}

func (p *Parser) applyDate(f *Filters, tok, value string) {
	parts := strings.Split(value, "+")
	date := strings.TrimSpace(parts[0])

	if len(date) < minDateLen {
		p.log.Error().Str("token", tok).Msg("invalid date value in query")
		f.Date = nil
	} else {
		f.Date = str(strings.ReplaceAll(date, "_", " "))
	}

	for _, kw := range parts[1:] {
		if kw = strings.TrimSpace(kw); kw != "" {
			f.Keywords = append(f.Keywords, kw)
		}
	}
}

func splitKeywords(tok string) []string {
	var out []string
	for _, kw := range strings.Split(tok, "+") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
