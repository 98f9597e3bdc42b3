package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"tahlil/core"
	"tahlil/wordcloud"
)

// respondJSON writes a JSON response with proper error handling.
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
	}
}

// getTokens godoc
//
//	@Summary		Tokenize text
//	@Description	Returns the surface tokens of the given text
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{string}	string	"Empty text"
//	@Router			/api/tokens/{text} [get]
func (a *API) getTokens(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "tokens")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	a.respondJSON(w, map[string]interface{}{
		"text":   text,
		"tokens": doc.TokenTexts(),
	}, http.StatusOK)
}

// getLemmas godoc
//
//	@Summary		Lemmatize text
//	@Description	Returns token/lemma pairs for the given text
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/lemma/{text} [get]
func (a *API) getLemmas(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "lemma")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	lemmas := make([]map[string]string, len(doc.Tokens))
	for i, t := range doc.Tokens {
		lemmas[i] = map[string]string{"token": t.Text, "lemma": t.Lemma}
	}
	a.respondJSON(w, map[string]interface{}{
		"text":   text,
		"lemmas": lemmas,
	}, http.StatusOK)
}

// getEntities godoc
//
//	@Summary		Named entity recognition
//	@Description	Returns the named entities found in the given text
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/ner/{text} [get]
func (a *API) getEntities(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "ner")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	entities := doc.Entities
	if entities == nil {
		entities = []core.Entity{}
	}
	a.respondJSON(w, map[string]interface{}{
		"text":     text,
		"entities": entities,
	}, http.StatusOK)
}

// getSentiment godoc
//
//	@Summary		Sentiment analysis
//	@Description	Returns the rule-based sentiment score, label and confidence
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/sentiment/{text} [get]
func (a *API) getSentiment(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "sentiment")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	words := make([]string, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		if t.POS != "PUNCT" {
			words = append(words, t.Text)
		}
	}
	a.respondJSON(w, map[string]interface{}{
		"text":         text,
		"words":        words,
		"score":        doc.Sentiment.Score,
		"label":        doc.Sentiment.Label,
		"confidence":   doc.Sentiment.Confidence,
		"polarity":     doc.Sentiment.Polarity,
		"subjectivity": doc.Sentiment.Subjectivity,
		"model":        doc.Sentiment.Model,
	}, http.StatusOK)
}

// getFullAnalysis godoc
//
//	@Summary		Full token analysis
//	@Description	Returns every token with tag, POS, dependency, lemma, shape and flags
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/nlpiffy/{text} [get]
func (a *API) getFullAnalysis(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "nlpiffy")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	a.respondJSON(w, map[string]interface{}{
		"text":     text,
		"analysis": doc.Tokens,
	}, http.StatusOK)
}

// getStopwords godoc
//
//	@Summary		Stop words
//	@Description	Returns the stop words found in the given text
//	@Tags			analysis
//	@Produce		json
//	@Param			text	path	string	true	"Text to analyze"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/stopwords/{text} [get]
func (a *API) getStopwords(w http.ResponseWriter, r *http.Request) {
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "stopwords")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	stopwords := doc.Stopwords()
	if stopwords == nil {
		stopwords = []string{}
	}
	a.respondJSON(w, map[string]interface{}{
		"text":      text,
		"stopwords": stopwords,
	}, http.StatusOK)
}

// getWordcloud godoc
//
//	@Summary		Word cloud
//	@Description	Renders a PNG word cloud of the content words in the given text
//	@Tags			analysis
//	@Produce		png
//	@Param			text	path	string	true	"Text to render"
//	@Success		200	{file}	binary
//	@Failure		503	{string}	string	"Renderer unavailable"
//	@Router			/fig/{text} [get]
func (a *API) getWordcloud(w http.ResponseWriter, r *http.Request) {
	if a.renderer == nil {
		a.writeError(w, http.StatusServiceUnavailable, "Word cloud rendering is not available", nil)
		return
	}
	text := pathText(r)
	doc, err := a.analyze(r.Context(), text, "wordcloud")
	if err != nil {
		status, msg := analysisStatus(err)
		a.writeError(w, status, msg, err)
		return
	}
	img, err := a.renderer.Render(doc)
	if err != nil {
		if errors.Is(err, wordcloud.ErrNoContent) {
			a.writeError(w, http.StatusBadRequest, "No content words to render", err)
			return
		}
		a.writeError(w, http.StatusInternalServerError, "Failed to render word cloud", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		a.logger.Errorw("Failed to write word cloud response", "error", err)
	}
}

// imagesHint points callers at the /fig endpoint.
func (a *API) imagesHint(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Enter text into url eg. /fig/yourtext")
}

// healthCheck godoc
//
//	@Summary		Health check
//	@Description	Reports service liveness and subsystem availability
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/health [get]
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	name, version := a.analyzer.ModelInfo()
	health := map[string]interface{}{
		"status": "healthy",
		"model": map[string]string{
			"name":    name,
			"version": version,
		},
		"history_enabled": a.history != nil,
		"cache_enabled":   a.cache != nil,
	}
	a.respondJSON(w, health, http.StatusOK)
}
