package api

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"tahlil/core"
	"tahlil/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// indexData feeds the analyzer page template. Doc is nil until a text has
// been submitted.
type indexData struct {
	Text       string
	Doc        *core.Doc
	ElapsedSec float64
	ResultJSON string
	Error      string
}

// aboutData feeds the about page with live history stats when available.
type aboutData struct {
	ModelName     string
	ModelVersion  string
	HistoryOn     bool
	TotalAnalyses int64
	CountsByLabel map[string]int64
	Recent        []storage.AnalysisRecord
}

func (a *API) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Errorw("Failed to render page", "template", name, "error", err)
	}
}

// indexPage serves the analyzer form.
func (a *API) indexPage(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, "index.html", &indexData{})
}

// analyzePage handles the form submit and renders the results inline.
func (a *API) analyzePage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.writeError(w, http.StatusBadRequest, "Invalid form data", err)
		return
	}
	text := r.PostFormValue("rawtext")

	doc, err := a.analyze(r.Context(), text, "analyze")
	if err != nil {
		status, msg := analysisStatus(err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if tplErr := pageTemplates.ExecuteTemplate(w, "index.html", &indexData{Text: text, Error: msg}); tplErr != nil {
			a.logger.Errorw("Failed to render page", "template", "index.html", "error", tplErr)
		}
		return
	}

	raw, jsonErr := json.MarshalIndent(doc.Tokens, "", "  ")
	if jsonErr != nil {
		a.logger.Errorw("Failed to marshal token JSON for page", "error", jsonErr)
	}
	a.renderPage(w, "index.html", &indexData{
		Text:       text,
		Doc:        doc,
		ElapsedSec: doc.Elapsed.Seconds(),
		ResultJSON: string(raw),
	})
}

// aboutPage serves project info plus history stats when storage is up.
func (a *API) aboutPage(w http.ResponseWriter, r *http.Request) {
	name, version := a.analyzer.ModelInfo()
	data := &aboutData{
		ModelName:    name,
		ModelVersion: version,
		HistoryOn:    a.history != nil,
	}
	if a.history != nil {
		ctx := r.Context()
		if total, err := a.history.Count(ctx); err == nil {
			data.TotalAnalyses = total
		} else {
			a.logger.Warnw("Failed to count analysis history", "error", err)
		}
		if counts, err := a.history.CountsByLabel(ctx); err == nil {
			data.CountsByLabel = counts
		}
		if recent, err := a.history.GetRecent(ctx, 10); err == nil {
			data.Recent = recent
		}
	}
	a.renderPage(w, "about.html", data)
}

// apiDocsPage serves the human-readable REST API reference.
func (a *API) apiDocsPage(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, "restfulapidocs.html", nil)
}
