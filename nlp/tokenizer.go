package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var turkishLower = cases.Lower(language.Turkish)

// Lower lowercases a string with Turkish casing rules (I -> ı, İ -> i).
func Lower(s string) string {
	return turkishLower.String(s)
}

// apostrophes accepted as suffix separators in Turkish proper nouns
// (Ankara'da, İstanbul'un). The token is kept whole; the lemma drops the
// suffix.
const apostrophes = "'’"

// Tokenize splits text into tokens with deterministic rules: whitespace
// separation, leading/trailing punctuation split into their own tokens,
// apostrophe suffixes kept attached to their host word. This is rule-based
// segmentation only; all annotation comes from model lookups.
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = append(tokens, splitField(field)...)
	}
	return tokens
}

func splitField(field string) []string {
	var lead, trail []string

	// Peel leading punctuation
	runes := []rune(field)
	start, end := 0, len(runes)
	for start < end && isSplitPunct(runes[start]) {
		lead = append(lead, string(runes[start]))
		start++
	}
	// Peel trailing punctuation
	for end > start && isSplitPunct(runes[end-1]) {
		trail = append([]string{string(runes[end-1])}, trail...)
		end--
	}

	tokens := lead
	if start < end {
		tokens = append(tokens, string(runes[start:end]))
	}
	return append(tokens, trail...)
}

// isSplitPunct reports whether a rune is punctuation that forms its own
// token. Apostrophes stay attached so suffixed proper nouns survive as one
// token.
func isSplitPunct(r rune) bool {
	if strings.ContainsRune(apostrophes, r) {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r) && !isEmoji(r)
}

// isEmoji reports whether a rune falls in the common emoji blocks. Emojis
// are kept as tokens because the sentiment scorer weighs them.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x2764: // heavy black heart
		return true
	}
	return false
}

// LemmaFallback derives a lemma for a form missing from the model table:
// the Turkish-lowercased form with any apostrophe suffix removed.
func LemmaFallback(token string) string {
	lower := Lower(token)
	if i := strings.IndexAny(lower, apostrophes); i > 0 {
		return lower[:i]
	}
	return lower
}

// IsAlphabetic reports whether every rune in the token is a letter.
func IsAlphabetic(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether every rune in the token is a digit.
func IsNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Shape returns the orthographic shape of a token the way spaCy-style
// pipelines report it: uppercase letters become X, lowercase x, digits d,
// everything else is kept, and runs longer than four are truncated.
func Shape(token string) string {
	var b strings.Builder
	var last rune
	run := 0
	for _, r := range token {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLower(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c == last {
			run++
			if run > 4 {
				continue
			}
		} else {
			run = 1
			last = c
		}
		b.WriteRune(c)
	}
	return b.String()
}
