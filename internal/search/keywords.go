// Package search turns catalog text into keyword sets and free-text queries
// into structured filters, and ranks offerings against them.
package search

import (
	"sort"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {},
	"my": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "with": {}, "your": {},
	"you": {}, "want": {}, "learn": {}, "near": {}, "some": {}, "this": {}, "that": {},
}

// Tokenize lower-cases s, replaces punctuation with spaces and splits it into words.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Fields(s)
}

// IsStopWord reports whether w carries no search meaning.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Variants returns w together with its naive singular or plural form.
func Variants(w string) []string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return []string{w, w[:len(w)-3] + "y"}
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return []string{w, w[:len(w)-1]}
	case len(w) > 2 && strings.HasSuffix(w, "y") && !isVowel(w[len(w)-2]):
		return []string{w, w[:len(w)-1] + "ies"}
	case strings.HasSuffix(w, "ss") || strings.HasSuffix(w, "sh") || strings.HasSuffix(w, "ch") || strings.HasSuffix(w, "x") || strings.HasSuffix(w, "z"):
		return []string{w, w + "es"}
	default:
		return []string{w, w + "s"}
	}
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

// GenerateKeywords builds the sorted, de-duplicated keyword set of a catalog
// service from its name, description and category.
func GenerateKeywords(name, description, category string) []string {
	set := make(map[string]struct{})
	add := func(text string) {
		for _, w := range Tokenize(text) {
			if len(w) < 2 || IsStopWord(w) {
				continue
			}
			for _, v := range Variants(w) {
				set[v] = struct{}{}
			}
		}
	}
	add(name)
	add(description)
	add(category)
	if c := strings.Join(Tokenize(category), " "); c != "" {
		set[c] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
