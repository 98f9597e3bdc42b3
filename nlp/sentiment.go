package nlp

import (
	"math"
	"strings"
	"unicode"

	"tahlil/core"
	"tahlil/model"
)

// SentimentAnalyzer scores Turkish text with lexicon rules: positive and
// negative word lists, intensifier weights, negation flipping, emoji and
// exclamation contributions. All lexical resources come from the model
// package.
type SentimentAnalyzer struct {
	positive     map[string]struct{}
	negative     map[string]struct{}
	intensifiers map[string]float64
	negations    map[string]struct{}
	posEmojis    []string
	negEmojis    []string
}

// NewSentimentAnalyzer builds an analyzer from a model sentiment lexicon.
func NewSentimentAnalyzer(lex model.SentimentLexicon) *SentimentAnalyzer {
	a := &SentimentAnalyzer{
		positive:     make(map[string]struct{}, len(lex.Positive)),
		negative:     make(map[string]struct{}, len(lex.Negative)),
		intensifiers: make(map[string]float64, len(lex.Intensifiers)),
		negations:    make(map[string]struct{}, len(lex.Negations)),
		posEmojis:    lex.PositiveEmojis,
		negEmojis:    lex.NegativeEmojis,
	}
	for _, w := range lex.Positive {
		a.positive[Lower(w)] = struct{}{}
	}
	for _, w := range lex.Negative {
		a.negative[Lower(w)] = struct{}{}
	}
	for w, mult := range lex.Intensifiers {
		a.intensifiers[Lower(w)] = mult
	}
	for _, w := range lex.Negations {
		a.negations[Lower(w)] = struct{}{}
	}
	return a
}

// sentimentWords splits text into lowercase words for lexicon matching,
// trimming surrounding punctuation so "muhteşemdi!" still matches.
func sentimentWords(text string) []string {
	fields := strings.Fields(Lower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && !strings.ContainsRune(apostrophes, r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Analyze scores a text. Empty or whitespace-only input is neutral with
// zero confidence.
func (a *SentimentAnalyzer) Analyze(text string) core.Sentiment {
	if strings.TrimSpace(text) == "" {
		return core.Sentiment{
			Label:        core.SentimentNeutral,
			Subjectivity: 0.5,
			Model:        sentimentModelName,
		}
	}

	words := sentimentWords(text)

	var posScore, negScore float64
	for _, w := range words {
		if _, ok := a.positive[w]; ok {
			posScore++
		}
		if _, ok := a.negative[w]; ok {
			negScore++
		}
	}

	// Intensifiers boost the following word's polarity.
	for i, w := range words {
		mult, ok := a.intensifiers[w]
		if !ok || i+1 >= len(words) {
			continue
		}
		next := words[i+1]
		if _, ok := a.positive[next]; ok {
			posScore += 0.5 * mult
		} else if _, ok := a.negative[next]; ok {
			negScore += 0.5 * mult
		}
	}

	// A negation partially flips the accumulated polarity. Only the first
	// negation counts.
	for _, w := range words {
		if _, ok := a.negations[w]; ok {
			posScore, negScore = negScore*0.7, posScore*0.7
			break
		}
	}

	for _, e := range a.posEmojis {
		posScore += float64(strings.Count(text, e)) * 0.5
	}
	for _, e := range a.negEmojis {
		negScore += float64(strings.Count(text, e)) * 0.5
	}

	// Exclamation marks intensify whichever side already dominates.
	if bangs := strings.Count(text, "!"); bangs > 0 {
		if posScore > negScore {
			posScore *= 1 + float64(bangs)*0.1
		} else if negScore > posScore {
			negScore *= 1 + float64(bangs)*0.1
		}
	}

	total := posScore + negScore
	if total == 0 {
		return core.Sentiment{
			Label:        core.SentimentNeutral,
			Confidence:   0.5,
			Subjectivity: 0.5,
			Model:        sentimentModelName,
		}
	}

	score := (posScore - negScore) / total
	label := core.SentimentNeutral
	switch {
	case score > 0.2:
		label = core.SentimentPositive
	case score < -0.2:
		label = core.SentimentNegative
	}
	confidence := math.Min(math.Abs(score)+0.3, 1.0)

	return core.Sentiment{
		Score:        round3(score),
		Label:        label,
		Confidence:   round3(confidence),
		Polarity:     round3(score),
		Subjectivity: round3(confidence),
		Model:        sentimentModelName,
	}
}

const sentimentModelName = "turkish-lexicon"

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
