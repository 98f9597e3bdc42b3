// Package api Tahlil Turkish Text Analysis API
//
//	@title			Tahlil API
//	@version		1.0
//	@description	REST API for Turkish tokenization, lemmatization, named entity recognition and sentiment analysis
//
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
//
// @host		localhost:5000
// @BasePath	/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tahlil/config"
	"tahlil/core"
	"tahlil/storage"
)

// Analyzer runs the NLP pipeline over an input text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*core.Doc, error)
	ModelInfo() (name, version string)
}

// HistoryStorer records completed analyses and serves dashboard queries.
type HistoryStorer interface {
	SaveAnalysis(ctx context.Context, rec *storage.AnalysisRecord) error
	GetRecent(ctx context.Context, limit int) ([]storage.AnalysisRecord, error)
	Count(ctx context.Context) (int64, error)
	CountsByLabel(ctx context.Context) (map[string]int64, error)
}

// Renderer draws a word-cloud PNG for an analyzed document.
type Renderer interface {
	Render(doc *core.Doc) ([]byte, error)
}

// rateLimiterEntry holds a per-client rate limiter with last seen time.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the HTTP server and its dependencies. History, cache and
// renderer may be nil when the service runs degraded.
type API struct {
	router         *mux.Router
	server         *http.Server
	analyzer       Analyzer
	history        HistoryStorer
	renderer       Renderer
	cache          *core.ResultCache
	config         *config.Config
	logger         *zap.SugaredLogger
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}
}

// NewAPI creates the HTTP server and registers all routes.
func NewAPI(analyzer Analyzer, history HistoryStorer, renderer Renderer, cache *core.ResultCache, cfg *config.Config, logger *zap.SugaredLogger) *API {
	a := &API{
		router:       mux.NewRouter(),
		analyzer:     analyzer,
		history:      history,
		renderer:     renderer,
		cache:        cache,
		config:       cfg,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	a.setupRoutes()
	go a.cleanupRateLimiters()
	return a
}

// setupRoutes registers middleware and all HTTP routes.
func (a *API) setupRoutes() {
	a.router.Use(a.recoveryMiddleware)
	a.router.Use(a.requestIDMiddleware)
	a.router.Use(a.loggingMiddleware)
	a.router.Use(a.corsMiddleware)
	a.router.Use(a.rateLimitMiddleware)
	a.router.Use(a.timeoutMiddleware)

	// Pages
	a.router.HandleFunc("/", a.indexPage).Methods("GET")
	a.router.HandleFunc("/analyze", a.analyzePage).Methods("POST")
	a.router.HandleFunc("/about", a.aboutPage).Methods("GET")
	a.router.HandleFunc("/api", a.apiDocsPage).Methods("GET")

	// JSON API
	a.router.HandleFunc("/api/tokens/{text}", a.getTokens).Methods("GET")
	a.router.HandleFunc("/api/lemma/{text}", a.getLemmas).Methods("GET")
	a.router.HandleFunc("/api/ner/{text}", a.getEntities).Methods("GET")
	a.router.HandleFunc("/api/entities/{text}", a.getEntities).Methods("GET")
	a.router.HandleFunc("/api/sentiment/{text}", a.getSentiment).Methods("GET")
	a.router.HandleFunc("/api/nlpiffy/{text}", a.getFullAnalysis).Methods("GET")
	a.router.HandleFunc("/api/stopwords/{text}", a.getStopwords).Methods("GET")

	// Word cloud
	a.router.HandleFunc("/fig/{text}", a.getWordcloud).Methods("GET")
	a.router.HandleFunc("/images", a.imagesHint).Methods("GET")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())
	a.router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Preflight requests must reach the CORS middleware even on GET-only
	// routes.
	a.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Router exposes the configured router, mainly for tests.
func (a *API) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server.
func (a *API) Start(addr string) error {
	a.server = a.newServer(addr)
	return a.server.ListenAndServe()
}

// StartTLS starts the HTTP server with TLS.
func (a *API) StartTLS(addr, certFile, keyFile string) error {
	a.server = a.newServer(addr)
	return a.server.ListenAndServeTLS(certFile, keyFile)
}

func (a *API) newServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
}

// Stop shuts the server down and stops the rate limiter cleanup goroutine.
func (a *API) Stop(ctx context.Context) error {
	close(a.stopCh)
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
