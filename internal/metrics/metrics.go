package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Rebalances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "weight_rebalances_total",
		Help:      "Single-factor weight edits applied, by factor.",
	}, []string{"factor"})

	WeightReplacements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "weight_replacements_total",
		Help:      "Bulk weight vector replacements applied.",
	})

	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "evaluations_total",
		Help:      "Ranking recomputations, by trigger.",
	}, []string{"reason"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mrat",
		Name:      "evaluation_duration_seconds",
		Help:      "Time spent scoring and ranking one session.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mrat",
		Name:      "sessions_active",
		Help:      "Weight sessions currently held in memory.",
	})

	Countries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mrat",
		Name:      "countries_loaded",
		Help:      "Countries in the shared catalog.",
	})

	IngestIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "ingest_issues_total",
		Help:      "Anomalies found while normalizing country batches, by kind.",
	}, []string{"kind"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "exports_total",
		Help:      "Ranking report exports, by backend and outcome.",
	}, []string{"backend", "outcome"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mrat",
		Name:      "catalog_refreshes_total",
		Help:      "Catalog reloads from the store, by outcome.",
	}, []string{"outcome"})
)
