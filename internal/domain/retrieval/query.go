package retrieval

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query is a normalized query ready for lexical matching.
type Query struct {
	Raw    string
	Folded string              // case-folded, diacritics stripped
	Tokens []string            // Folded split on non-letter/non-digit runes
	set    map[string]struct{} // token membership
}

// stripMarks removes combining marks after NFD decomposition, so "Göteborg"
// folds to "goteborg" and matches queries typed without diacritics.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeQuery folds, de-accents and tokenizes free text.
func NormalizeQuery(raw string) Query {
	folded := FoldText(raw)
	tokens := Tokenize(folded)

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}

	return Query{Raw: raw, Folded: folded, Tokens: tokens, set: set}
}

// HasToken reports whether the normalized query contains the exact token.
func (q Query) HasToken(tok string) bool {
	_, ok := q.set[tok]
	return ok
}

// FoldText lowercases text and strips diacritics. Falls back to plain
// lowercasing if the transform fails on malformed input.
func FoldText(s string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Tokenize splits folded text on every non-letter/non-digit rune.
func Tokenize(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
