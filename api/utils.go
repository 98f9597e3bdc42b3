package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tahlil/core"
	"tahlil/metrics"
	"tahlil/nlp"
	"tahlil/storage"
)

// writeError logs the full error and sends a short message to the client.
func (a *API) writeError(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		a.logger.Errorw(message, "error", err, "status_code", statusCode)
	} else {
		a.logger.Errorw(message, "status_code", statusCode)
	}
	http.Error(w, message, statusCode)
}

// pathText extracts the {text} path variable. gorilla/mux hands it back
// already URL-decoded.
func pathText(r *http.Request) string {
	return mux.Vars(r)["text"]
}

// analyze runs one analysis through the cache, pipeline and history layers.
// It is the single entry point for every handler that needs a document.
func (a *API) analyze(ctx context.Context, text, operation string) (*core.Doc, error) {
	key := core.TextHash(text)
	if a.cache != nil {
		if doc, ok := a.cache.Get(ctx, key); ok {
			metrics.AnalysesTotal.WithLabelValues(operation).Inc()
			return doc, nil
		}
	}

	doc, err := a.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues(operation).Inc()

	if a.cache != nil {
		a.cache.Put(ctx, key, doc)
	}
	if a.history != nil {
		rec := &storage.AnalysisRecord{
			TextHash:       key,
			Operation:      operation,
			TokenCount:     len(doc.Tokens),
			EntityCount:    len(doc.Entities),
			SentimentLabel: doc.Sentiment.Label,
			SentimentScore: doc.Sentiment.Score,
			DurationMS:     float64(doc.Elapsed.Microseconds()) / 1000.0,
		}
		if err := a.history.SaveAnalysis(ctx, rec); err != nil {
			metrics.HistoryWriteFailures.Inc()
			a.logger.Warnw("failed to record analysis history", "error", err)
		}
	}
	return doc, nil
}

// analysisStatus maps pipeline errors onto HTTP status codes.
func analysisStatus(err error) (int, string) {
	switch {
	case errors.Is(err, nlp.ErrEmptyText):
		return http.StatusBadRequest, "Text must not be empty"
	case errors.Is(err, nlp.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge, "Text exceeds the maximum length"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Analysis timed out"
	default:
		return http.StatusInternalServerError, "Analysis failed"
	}
}
