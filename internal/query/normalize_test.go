package query

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain keywords untouched", "golang tips", "golang tips"},
		{"date phrase", "date:last week", "date:last_week"},
		{"date phrase flexible spacing", "date :  last   week", "date:last_week"},
		{"date phrase keeps case and tail", "DATE : Last Month rest", "DATE:Last_Month rest"},
		{"this week and this month", "date:this week date:this month", "date:this_week date:this_month"},
		{"long form date", "type:video date:15 August 2025", "type:video date:15_August_2025"},
		{"date separator collapsed", "date: yesterday", "date:yesterday"},
		{"bare date before another filter", "date: site:x", "date: site:x"},
		{"bare date at end", "foo date:", "foo date:"},
		{"not a date prefix", "update: now", "update: now"},
		{"single word site", "site: youtube.com date:yesterday", "site:youtube.com date:yesterday"},
		{"multi word values quoted", "site: youtube music name: Jane Doe", `site:"youtube music" name:"Jane Doe"`},
		{"value stops at next word colon", "site:youtube https://x.com", "site:youtube https://x.com"},
		{"value runs to end", "type:short film", `type:"short film"`},
		{"already quoted", `site:"already quoted"`, `site:"already quoted"`},
		{"value cut short by a quote", `site:a b "c"`, `site:a b "c"`},
		{"word boundary required", "website:foo bar", "website:foo bar"},
		{"trailing whitespace blocks rewrite", "site:a b ", "site:a b "},
		{"value containing a filter name", "site:name:x", "site:name:x"},
		{"mixed", "site: youtube.com date: last week", "site:youtube.com date:last_week"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.input)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"whitespace split", "a  b\tc", []string{"a", "b", "c"}},
		{"quoted phrase kept whole", `"exact phrase" x`, []string{`"exact phrase"`, "x"}},
		{"quoted value glued to prefix", `site:"youtube music" x`, []string{`site:"youtube music"`, "x"}},
		{"quote after plain word splits", `a"b c"`, []string{"a", `"b c"`}},
		{"quote after non-filter prefix splits", `note:"hello world"`, []string{"note:", `"hello world"`}},
		{"quoted value glued to any-case prefix", `TAG:"x y"`, []string{`TAG:"x y"`}},
		{"unpaired quote dropped", `foo "bar`, []string{"foo", "bar"}},
		{"lone quote", `"`, nil},
		{"empty", "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}
