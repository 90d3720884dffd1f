package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyndex_files_parsed_total",
		Help: "Total number of source files parsed successfully.",
	})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyndex_files_skipped_total",
		Help: "Total number of source files skipped, by reason.",
	}, []string{"reason"})

	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyndex_parse_seconds",
		Help:    "Time spent parsing one source file.",
		Buckets: prometheus.DefBuckets,
	})

	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyndex_build_seconds",
		Help:    "Time spent building one artifact.",
		Buckets: prometheus.DefBuckets,
	}, []string{"artifact"})

	InternedNames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyndex_interned_names_total",
		Help: "Unique names interned during the current run.",
	})

	InternedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyndex_interned_files_total",
		Help: "Unique file paths interned during the current run.",
	})

	InternedDefaults = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyndex_interned_defaults_total",
		Help: "Unique default-value literals interned during the current run.",
	})

	EntitiesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyndex_entities_registered_total",
		Help: "Structural entities registered, by kind.",
	}, []string{"kind"})

	AnalysisFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyndex_analysis_findings_total",
		Help: "Auxiliary analyzer findings, by analyzer.",
	}, []string{"analyzer"})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyndex_runs_total",
		Help: "Completed indexing runs.",
	})
)
