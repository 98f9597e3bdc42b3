// Package metrics defines the Prometheus metrics exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tahlil_analyses_total",
			Help: "Total number of analyses performed, by operation",
		},
		[]string{"operation"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tahlil_analysis_duration_seconds",
			Help:    "Time taken to run the NLP pipeline over an input text",
			Buckets: prometheus.DefBuckets,
		},
	)

	SentimentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tahlil_sentiment_results_total",
			Help: "Total number of sentiment results, by label",
		},
		[]string{"label"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tahlil_cache_hits_total",
			Help: "Total number of analysis cache hits, by tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tahlil_cache_misses_total",
			Help: "Total number of analysis cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tahlil_cache_errors_total",
			Help: "Total number of cache errors, by tier and kind",
		},
		[]string{"tier", "kind"},
	)

	ModelLoadSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tahlil_model_load_seconds",
			Help: "Time taken to load the language model package at startup",
		},
	)

	WordcloudsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tahlil_wordclouds_rendered_total",
			Help: "Total number of word-cloud images rendered",
		},
	)

	HistoryWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tahlil_history_write_failures_total",
			Help: "Total number of failed analysis-history inserts",
		},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tahlil_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)
