// Package nlp runs the Turkish analysis pipeline: rule-based tokenization
// plus model-table-driven annotation (tags, POS, dependencies, lemmas, stop
// words), gazetteer entity recognition and lexicon sentiment scoring.
// Annotation quality is the loaded model package's concern; this package
// only performs lookups and deterministic fallbacks.
package nlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tahlil/core"
	"tahlil/metrics"
	"tahlil/model"
)

// ErrTextTooLong is returned for inputs above the configured limit.
var ErrTextTooLong = errors.New("input text exceeds maximum length")

// slowAnalysisThreshold is the elapsed time above which an analysis is
// logged as slow.
const slowAnalysisThreshold = time.Second

// ErrEmptyText is returned for empty or whitespace-only input.
var ErrEmptyText = errors.New("input text is empty")

// Pipeline analyzes Turkish text against a loaded model package.
// A Pipeline is safe for concurrent use; the semaphore bounds concurrent
// runs to the configured worker count.
type Pipeline struct {
	data      *model.Data
	sentiment *SentimentAnalyzer
	gazetteer map[string][]gazetteerPattern
	maxLen    int
	sem       chan struct{}
	logger    *zap.SugaredLogger
}

// gazetteerPattern is a pre-split entity pattern keyed by its first token.
type gazetteerPattern struct {
	tokens []string
	label  string
}

// NewPipeline builds a pipeline from loaded model data. maxTextLength
// bounds accepted input; workers bounds concurrent Analyze calls.
func NewPipeline(data *model.Data, maxTextLength, workers int, logger *zap.SugaredLogger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		data:      data,
		sentiment: NewSentimentAnalyzer(data.Sentiment),
		gazetteer: make(map[string][]gazetteerPattern),
		maxLen:    maxTextLength,
		sem:       make(chan struct{}, workers),
		logger:    logger,
	}

	for _, e := range data.Entities {
		tokens := strings.Fields(Lower(e.Text))
		if len(tokens) == 0 {
			continue
		}
		first := tokens[0]
		p.gazetteer[first] = append(p.gazetteer[first], gazetteerPattern{tokens: tokens, label: e.Label})
	}
	// Longest pattern first so multi-token entities win over their prefixes.
	for first, patterns := range p.gazetteer {
		for i := 1; i < len(patterns); i++ {
			for j := i; j > 0 && len(patterns[j].tokens) > len(patterns[j-1].tokens); j-- {
				patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
			}
		}
		p.gazetteer[first] = patterns
	}
	return p
}

// ModelInfo returns the loaded package's name and version.
func (p *Pipeline) ModelInfo() (name, version string) {
	return p.data.Manifest.Name, p.data.Manifest.Version
}

// Analyze runs the full pipeline over text. The context bounds queue time
// when all workers are busy.
func (p *Pipeline) Analyze(ctx context.Context, text string) (*core.Doc, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if p.maxLen > 0 && len(text) > p.maxLen {
		p.logger.Warnw("Rejected oversized input", "bytes", len(text), "limit", p.maxLen)
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTextTooLong, len(text), p.maxLen)
	}

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()

	surfaces := Tokenize(text)
	tokens := make([]core.Token, len(surfaces))
	lowers := make([]string, len(surfaces))
	for i, surface := range surfaces {
		lowers[i] = Lower(surface)
		tokens[i] = p.annotate(surface, lowers[i])
	}

	doc := &core.Doc{
		Text:      text,
		Tokens:    tokens,
		Entities:  p.recognizeEntities(surfaces, lowers),
		Sentiment: p.sentiment.Analyze(text),
	}
	doc.Elapsed = time.Since(start)
	if doc.Elapsed > slowAnalysisThreshold {
		p.logger.Warnw("Slow analysis", "bytes", len(text), "tokens", len(tokens), "duration", doc.Elapsed)
	}

	metrics.AnalysisDuration.Observe(doc.Elapsed.Seconds())
	metrics.SentimentResults.WithLabelValues(doc.Sentiment.Label).Inc()

	return doc, nil
}

// annotate fills a token's annotations from the model table, falling back
// to deterministic heuristics for forms the model does not know.
func (p *Pipeline) annotate(surface, lower string) core.Token {
	tok := core.Token{
		Text:       surface,
		Shape:      Shape(surface),
		IsAlpha:    IsAlphabetic(surface),
		IsStopword: p.data.IsStopword(lower),
	}

	if entry, ok := p.data.Lookup(lower); ok {
		tok.Tag = entry.Tag
		tok.POS = entry.POS
		tok.Dependency = entry.Dep
		tok.Lemma = entry.Lemma
		return tok
	}

	switch {
	case IsNumeric(surface):
		tok.Tag, tok.POS, tok.Dependency = "Num", "NUM", "nummod"
		tok.Lemma = surface
	case !tok.IsAlpha && len([]rune(surface)) == 1:
		tok.Tag, tok.POS, tok.Dependency = "Punc", "PUNCT", "punct"
		tok.Lemma = surface
	default:
		// Unknown words default to nouns, the open class Turkish fills
		// fastest.
		tok.Tag, tok.POS, tok.Dependency = "Noun", "NOUN", "dep"
		tok.Lemma = LemmaFallback(surface)
	}
	return tok
}

// recognizeEntities scans tokens against the gazetteer with longest-match
// semantics. Matches never overlap; scanning resumes after each match.
func (p *Pipeline) recognizeEntities(surfaces, lowers []string) []core.Entity {
	var entities []core.Entity
	for i := 0; i < len(lowers); {
		patterns, ok := p.gazetteer[lowers[i]]
		if !ok {
			i++
			continue
		}

		matched := false
		for _, pat := range patterns {
			if i+len(pat.tokens) > len(lowers) {
				continue
			}
			if matchesAt(lowers, i, pat.tokens) {
				entities = append(entities, core.Entity{
					Text:  strings.Join(surfaces[i:i+len(pat.tokens)], " "),
					Label: pat.label,
				})
				i += len(pat.tokens)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return entities
}

func matchesAt(lowers []string, start int, pattern []string) bool {
	for j, pt := range pattern {
		if lowers[start+j] != pt {
			return false
		}
	}
	return true
}
