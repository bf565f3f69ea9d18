// Package intent turns free text into order intents and resolves menu items
// from loosely spoken names.
package intent

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	trailingPunct = regexp.MustCompile(`[\s.,!?]+$`)
	politeTail    = regexp.MustCompile(`\s*\b(please|pls|plz|thanks|thank\s+you|thank\s+u|thx|cheers|ta|much\s+appreciated|appreciate\s+it)\s*$`)
	wordAnd       = regexp.MustCompile(`\band\b`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9\s]`)
	spaces        = regexp.MustCompile(`\s+`)
)

// StripPoliteness lowercases s and removes trailing courtesy phrases and
// punctuation until nothing more comes off.
func StripPoliteness(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = trailingPunct.ReplaceAllString(s, "")
	for {
		before := s
		s = politeTail.ReplaceAllString(s, "")
		s = trailingPunct.ReplaceAllString(s, "")
		if s == before {
			break
		}
	}
	return strings.TrimSpace(s)
}

// Normalize produces the comparison form used by every matcher: no politeness
// tail, diacritics folded, "&" spelled out, only [a-z0-9] words separated by
// single spaces. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = StripPoliteness(fold(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = wordAnd.ReplaceAllString(s, " and ")
	s = nonAlnum.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	// Removing punctuation can expose a new politeness tail ("thanks!" -> "thanks").
	if t := StripPoliteness(s); t != s {
		return Normalize(t)
	}
	return s
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokens splits a normalized string into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Dice is the bigram Dice coefficient of the normalized forms of a and b.
func Dice(a, b string) float64 {
	s1, s2 := Normalize(a), Normalize(b)
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1
	}
	if len(s1) < 2 || len(s2) < 2 {
		return 0
	}
	b1, b2 := bigrams(s1), bigrams(s2)
	overlap := 0
	for bg, c1 := range b1 {
		overlap += min(c1, b2[bg])
	}
	return float64(2*overlap) / float64((len(s1)-1)+(len(s2)-1))
}

func bigrams(s string) map[string]int {
	out := make(map[string]int, len(s))
	for i := 0; i < len(s)-1; i++ {
		out[s[i:i+2]]++
	}
	return out
}

// TokenOverlap is the share of query words that appear in candidate.
func TokenOverlap(query, candidate string) float64 {
	q, c := Tokens(query), Tokens(candidate)
	if len(q) == 0 || len(c) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(c))
	for _, t := range c {
		set[t] = struct{}{}
	}
	hits := 0
	for _, t := range q {
		if _, ok := set[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// Similarity scores query against a menu item in [0,1].
func Similarity(query, name, description string) float64 {
	q := Normalize(query)
	if q == "" {
		return 0
	}
	hay := Normalize(name + " " + description)
	switch {
	case hay == q:
		return 1
	case strings.Contains(hay, q):
		return 0.92
	case strings.Contains(Normalize(name), q):
		return 0.88
	}
	dice := Dice(q, hay)
	tok := TokenOverlap(q, hay)
	return max(dice*0.75+tok*0.25, tok*0.7)
}
