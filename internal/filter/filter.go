// Package filter matches free-text search queries against records without
// regard to case or accents, so "cafe" finds "Café".
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Query is a parsed search string.
type Query struct {
	tokens []string
}

// Parse splits s into folded tokens.
func Parse(s string) Query {
	return Query{tokens: strings.Fields(Fold(s))}
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return len(q.tokens) == 0
}

// Match reports whether every token occurs in at least one field.
func (q Query) Match(fields ...string) bool {
	if q.Empty() {
		return true
	}
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = Fold(f)
	}
	for _, tok := range q.tokens {
		found := false
		for _, f := range folded {
			if strings.Contains(f, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Match is shorthand for Parse(query).Match(fields...).
func Match(query string, fields ...string) bool {
	return Parse(query).Match(fields...)
}

// Apply returns the elements of items that keep accepts, preserving order.
func Apply[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
