package domain

import (
	"sort"
	"strings"
	"unicode"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SearchTokens splits s the way the `simple` text search configuration does:
// lower-cased runs of letters and digits, everything else is a separator.
func SearchTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// DocumentTokens returns the distinct tokens of the search document derived
// from a make/model chain and, when trim is non-nil, a trim row.
func DocumentTokens(mk Make, mo Model, trim *Trim) []string {
	text := mk.SearchText() + " " + mo.SearchText()
	if trim != nil {
		text += " " + trim.SearchText()
	}
	return uniqueSorted(SearchTokens(text))
}

// MissingTokens returns the distinct tokens of terms that are absent from doc.
func MissingTokens(terms string, doc []string) []string {
	have := make(map[string]struct{}, len(doc))
	for _, t := range doc {
		have[t] = struct{}{}
	}
	var out []string
	for _, t := range uniqueSorted(SearchTokens(terms)) {
		if _, ok := have[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// ContainsAllTokens reports whether every token of terms appears in doc.
// An empty query matches nothing, as with plainto_tsquery.
func ContainsAllTokens(doc []string, terms string) bool {
	q := SearchTokens(terms)
	if len(q) == 0 {
		return false
	}
	return len(MissingTokens(terms, doc)) == 0
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
