// Package core contains the domain types shared across the tahlil service:
// analyzed documents, tokens, entities and sentiment scores.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Turkish case folding maps I to ı and İ to i, which strings.ToLower
// gets wrong.
var turkishLower = cases.Lower(language.Turkish)

// Token is a single analyzed token with its linguistic annotations.
// Annotation values (tag, POS, dependency, lemma) come from the loaded
// language model package and are treated as opaque strings.
type Token struct {
	Text       string `json:"token"`
	Tag        string `json:"tag"`
	POS        string `json:"pos"`
	Dependency string `json:"dependency"`
	Lemma      string `json:"lemma"`
	Shape      string `json:"shape"`
	IsAlpha    bool   `json:"is_alpha"`
	IsStopword bool   `json:"is_stopword"`
}

// Entity is a named entity span recognized in the input text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Sentiment is the result of the rule-based Turkish sentiment scorer.
// Score is in [-1, 1]. Polarity mirrors Score and Subjectivity mirrors
// Confidence for compatibility with the public API shape.
type Sentiment struct {
	Score        float64 `json:"score"`
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Model        string  `json:"model"`
}

// Sentiment labels. Turkish labels are part of the public API contract.
const (
	SentimentPositive = "Pozitif"
	SentimentNegative = "Negatif"
	SentimentNeutral  = "Nötr"
)

// Doc is a fully analyzed document.
type Doc struct {
	Text      string        `json:"text"`
	Tokens    []Token       `json:"tokens"`
	Entities  []Entity      `json:"entities"`
	Sentiment Sentiment     `json:"sentiment"`
	Elapsed   time.Duration `json:"-"`
}

// TokenTexts returns the surface forms of all tokens in order.
func (d *Doc) TokenTexts() []string {
	texts := make([]string, len(d.Tokens))
	for i, t := range d.Tokens {
		texts[i] = t.Text
	}
	return texts
}

// Stopwords returns the tokens flagged as stop words.
func (d *Doc) Stopwords() []string {
	var out []string
	for _, t := range d.Tokens {
		if t.IsStopword {
			out = append(out, t.Text)
		}
	}
	return out
}

// ContentWords returns lowercase alphabetic tokens that are not stop words.
// This is the input for word-cloud frequency counting.
func (d *Doc) ContentWords() []string {
	var out []string
	for _, t := range d.Tokens {
		if t.IsAlpha && !t.IsStopword {
			out = append(out, turkishLower.String(t.Text))
		}
	}
	return out
}

// TextHash returns the cache/storage key for an input text: the hex SHA-256
// of the whitespace-normalized text. Raw text is never persisted.
func TextHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
