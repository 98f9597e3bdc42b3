package nlp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tahlil/model"
)

func testModelData() *model.Data {
	return &model.Data{
		Manifest: &model.Manifest{Name: "tr_test", Version: "1.0.0", Language: "tr"},
		Tokens: map[string]model.TokenEntry{
			"kedi":      {Tag: "Noun", POS: "NOUN", Dep: "nsubj", Lemma: "kedi"},
			"uyuyor":    {Tag: "Verb", POS: "VERB", Dep: "ROOT", Lemma: "uyu"},
			"güzel":     {Tag: "Adj", POS: "ADJ", Dep: "amod", Lemma: "güzel"},
			"ve":        {Tag: "Conj", POS: "CCONJ", Dep: "cc", Lemma: "ve"},
			"evde":      {Tag: "Noun", POS: "NOUN", Dep: "obl", Lemma: "ev"},
			"istanbul":  {Tag: "Propn", POS: "PROPN", Dep: "nsubj", Lemma: "istanbul"},
			"boğazı":    {Tag: "Propn", POS: "PROPN", Dep: "flat", Lemma: "boğaz"},
			"atatürk":   {Tag: "Propn", POS: "PROPN", Dep: "nsubj", Lemma: "atatürk"},
		},
		Stopwords: map[string]struct{}{"ve": {}, "bir": {}, "bu": {}},
		Entities: []model.GazetteerEntry{
			{Text: "İstanbul", Label: "GPE"},
			{Text: "İstanbul Boğazı", Label: "LOC"},
			{Text: "Mustafa Kemal Atatürk", Label: "PERSON"},
		},
		Sentiment: testLexicon(),
	}
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(testModelData(), 1000, 2, zap.NewNop().Sugar())
}

func TestAnalyzeAnnotatesFromModelTable(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "Kedi evde uyuyor.")
	require.NoError(t, err)
	require.Len(t, doc.Tokens, 4)

	kedi := doc.Tokens[0]
	assert.Equal(t, "Kedi", kedi.Text)
	assert.Equal(t, "Noun", kedi.Tag)
	assert.Equal(t, "NOUN", kedi.POS)
	assert.Equal(t, "nsubj", kedi.Dependency)
	assert.Equal(t, "kedi", kedi.Lemma)
	assert.Equal(t, "Xxxx", kedi.Shape)
	assert.True(t, kedi.IsAlpha)
	assert.False(t, kedi.IsStopword)

	uyuyor := doc.Tokens[2]
	assert.Equal(t, "ROOT", uyuyor.Dependency)
	assert.Equal(t, "uyu", uyuyor.Lemma)

	dot := doc.Tokens[3]
	assert.Equal(t, "PUNCT", dot.POS)
	assert.False(t, dot.IsAlpha)
}

func TestAnalyzeUnknownWordFallback(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "Zeytinyağı 42")
	require.NoError(t, err)
	require.Len(t, doc.Tokens, 2)

	unknown := doc.Tokens[0]
	assert.Equal(t, "NOUN", unknown.POS)
	assert.Equal(t, "zeytinyağı", unknown.Lemma)

	num := doc.Tokens[1]
	assert.Equal(t, "NUM", num.POS)
	assert.Equal(t, "nummod", num.Dependency)
}

func TestAnalyzeStopwordFlag(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "kedi ve güzel")
	require.NoError(t, err)

	assert.False(t, doc.Tokens[0].IsStopword)
	assert.True(t, doc.Tokens[1].IsStopword)
	assert.Equal(t, []string{"ve"}, doc.Stopwords())
}

func TestAnalyzeEntityLongestMatch(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "İstanbul Boğazı çok güzel.")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "İstanbul Boğazı", doc.Entities[0].Text)
	assert.Equal(t, "LOC", doc.Entities[0].Label)
}

func TestAnalyzeEntitySingleToken(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "İstanbul güzel.")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "GPE", doc.Entities[0].Label)
}

func TestAnalyzeMultiTokenEntity(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "Mustafa Kemal Atatürk Ankara'ya gitti.")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "Mustafa Kemal Atatürk", doc.Entities[0].Text)
	assert.Equal(t, "PERSON", doc.Entities[0].Label)
}

func TestAnalyzeEmptyText(t *testing.T) {
	p := testPipeline(t)

	_, err := p.Analyze(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAnalyzeTextTooLong(t *testing.T) {
	p := testPipeline(t)

	_, err := p.Analyze(context.Background(), strings.Repeat("a", 1001))
	assert.ErrorIs(t, err, ErrTextTooLong)
}

func TestAnalyzeLogsOversizedRejection(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(testModelData(), 1000, 2, zap.New(core).Sugar())

	_, err := p.Analyze(context.Background(), strings.Repeat("a", 1001))
	require.ErrorIs(t, err, ErrTextTooLong)

	entries := logs.FilterMessage("Rejected oversized input").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1001), entries[0].ContextMap()["bytes"])
	assert.Equal(t, int64(1000), entries[0].ContextMap()["limit"])
}

func TestAnalyzeSetsSentimentAndTiming(t *testing.T) {
	p := testPipeline(t)

	doc, err := p.Analyze(context.Background(), "güzel kedi")
	require.NoError(t, err)
	assert.NotZero(t, doc.Sentiment.Label)
	assert.GreaterOrEqual(t, doc.Elapsed.Nanoseconds(), int64(0))
}

func TestModelInfo(t *testing.T) {
	p := testPipeline(t)

	name, version := p.ModelInfo()
	assert.Equal(t, "tr_test", name)
	assert.Equal(t, "1.0.0", version)
}
