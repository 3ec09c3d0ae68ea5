package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records stage timings, cache effectiveness, and loaded table sizes.
type PipelineMetrics struct {
	stageDuration *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec
	datasetRows   *prometheus.GaugeVec
	reloads       *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of analytics pipeline stages in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_cache_requests_total",
		Help: "Memoized section lookups partitioned by result.",
	}, []string{"section", "result"})
	datasetRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dataset_rows",
		Help: "Rows loaded per source table.",
	}, []string{"table"})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_reloads_total",
		Help: "Dataset reload attempts partitioned by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(stageDuration, cacheRequests, datasetRows, reloads)
	return &PipelineMetrics{
		stageDuration: stageDuration,
		cacheRequests: cacheRequests,
		datasetRows:   datasetRows,
		reloads:       reloads,
	}
}

// ObserveStage records the duration for the named stage.
func (p *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// CacheHit increments the hit counter for a section.
func (p *PipelineMetrics) CacheHit(section string) {
	p.cacheResult(section, "hit")
}

// CacheMiss increments the miss counter for a section.
func (p *PipelineMetrics) CacheMiss(section string) {
	p.cacheResult(section, "miss")
}

func (p *PipelineMetrics) cacheResult(section, result string) {
	if p == nil || p.cacheRequests == nil {
		return
	}
	p.cacheRequests.WithLabelValues(normalizeLabel(section), result).Inc()
}

// SetRows publishes the row count of a loaded table.
func (p *PipelineMetrics) SetRows(table string, rows int) {
	if p == nil || p.datasetRows == nil {
		return
	}
	p.datasetRows.WithLabelValues(normalizeLabel(table)).Set(float64(rows))
}

// IncReload counts a reload attempt with outcome "success" or "failure".
func (p *PipelineMetrics) IncReload(outcome string) {
	if p == nil || p.reloads == nil {
		return
	}
	p.reloads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
