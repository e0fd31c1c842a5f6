// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	mentionsFetched    *prometheus.CounterVec
	mentionsStored     *prometheus.CounterVec
	mentionsDuplicates *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	stageFailures      *prometheus.CounterVec
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mentionsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repushield",
			Name:      "mentions_fetched_total",
			Help:      "Raw items fetched from source platforms.",
		}, []string{"platform"}),
		mentionsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repushield",
			Name:      "mentions_stored_total",
			Help:      "Mentions stored after filtering and dedup.",
		}, []string{"platform"}),
		mentionsDuplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repushield",
			Name:      "mentions_duplicate_total",
			Help:      "Matched items skipped because they were already stored.",
		}, []string{"platform"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "repushield",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of orchestration stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repushield",
			Name:      "stage_failures_total",
			Help:      "Stages that finished in failed status.",
		}, []string{"stage"}),
	}
}

// ObserveFetch records one platform agent outcome.
func (m *Metrics) ObserveFetch(result domain.AgentResult) {
	platform := string(result.Platform)
	m.mentionsFetched.WithLabelValues(platform).Add(float64(result.Fetched))
	m.mentionsStored.WithLabelValues(platform).Add(float64(result.Stored))
	m.mentionsDuplicates.WithLabelValues(platform).Add(float64(result.Duplicates))
}

// ObserveStage records one audit row.
func (m *Metrics) ObserveStage(rec domain.StageRecord) {
	m.stageDuration.WithLabelValues(rec.Stage).Observe(rec.FinishedAt.Sub(rec.StartedAt).Seconds())
	if rec.Status == domain.StageFailed {
		m.stageFailures.WithLabelValues(rec.Stage).Inc()
	}
}
