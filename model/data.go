package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model package data file names. These are the opaque lookup tables the
// pipeline consumes; producing them is the model publisher's concern.
const (
	tokensFile    = "tokens.json"
	entitiesFile  = "entities.json"
	stopwordsFile = "stopwords.txt"
	sentimentFile = "sentiment.yaml"
)

// TokenEntry is the annotation record for a single surface form.
type TokenEntry struct {
	Tag   string `json:"tag"`
	POS   string `json:"pos"`
	Dep   string `json:"dep"`
	Lemma string `json:"lemma"`
}

// GazetteerEntry is a named-entity pattern: a span of lowercase tokens and
// its label.
type GazetteerEntry struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// SentimentLexicon holds the lexical resources for the rule-based sentiment
// scorer.
type SentimentLexicon struct {
	Positive       []string           `yaml:"positive"`
	Negative       []string           `yaml:"negative"`
	Intensifiers   map[string]float64 `yaml:"intensifiers"`
	Negations      []string           `yaml:"negations"`
	PositiveEmojis []string           `yaml:"positive_emojis"`
	NegativeEmojis []string           `yaml:"negative_emojis"`
}

// Data is a fully loaded model package: the manifest plus every lookup
// table, verified against the manifest checksums.
type Data struct {
	Manifest  *Manifest
	Tokens    map[string]TokenEntry
	Stopwords map[string]struct{}
	Entities  []GazetteerEntry
	Sentiment SentimentLexicon
}

// LoadData loads and verifies an extracted model package directory.
// Checksum verification runs before any table is parsed so a truncated or
// tampered package fails closed.
func LoadData(dir string) (*Data, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	if err := manifest.VerifyFiles(dir); err != nil {
		return nil, err
	}

	d := &Data{
		Manifest:  manifest,
		Tokens:    make(map[string]TokenEntry),
		Stopwords: make(map[string]struct{}),
	}

	raw, err := os.ReadFile(filepath.Join(dir, tokensFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataFile, tokensFile)
	}
	if err := json.Unmarshal(raw, &d.Tokens); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", tokensFile, err)
	}

	raw, err = os.ReadFile(filepath.Join(dir, entitiesFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataFile, entitiesFile)
	}
	if err := json.Unmarshal(raw, &d.Entities); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", entitiesFile, err)
	}

	raw, err = os.ReadFile(filepath.Join(dir, stopwordsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataFile, stopwordsFile)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		d.Stopwords[word] = struct{}{}
	}

	raw, err = os.ReadFile(filepath.Join(dir, sentimentFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataFile, sentimentFile)
	}
	if err := yaml.Unmarshal(raw, &d.Sentiment); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", sentimentFile, err)
	}

	return d, nil
}

// Lookup returns the annotation entry for a lowercase surface form.
func (d *Data) Lookup(form string) (TokenEntry, bool) {
	entry, ok := d.Tokens[form]
	return entry, ok
}

// IsStopword reports whether a lowercase surface form is a stop word.
func (d *Data) IsStopword(form string) bool {
	_, ok := d.Stopwords[form]
	return ok
}
