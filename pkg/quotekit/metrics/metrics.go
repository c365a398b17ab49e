// Package metrics exposes assembly outcomes as Prometheus collectors.
//
// A Collector is an assemble.Observer: hand it to the assembler and it
// counts every carried, accepted and rejected record as the run proceeds.
// ObserveRun then records the corpus composition from the final stats.
// Batch jobs have no scrape endpoint, so WriteTextfile renders the registry
// in the node-exporter textfile format.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/quotekit/pkg/quotekit/assemble"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

const namespace = "quotekit"

// Outcome labels for the records counter.
const (
	OutcomeCarried  = "carried"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Collector implements assemble.Observer.
type Collector struct {
	reg *prometheus.Registry

	records   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	defaulted prometheus.Counter
	quality   prometheus.Histogram

	corpusEra       *prometheus.GaugeVec
	corpusTradition *prometheus.GaugeVec
	corpusSize      prometheus.Gauge
	meanQuality     prometheus.Gauge
	lastRun         prometheus.Gauge
	lastDuration    prometheus.Gauge

	mu sync.Mutex
}

var _ assemble.Observer = (*Collector)(nil)

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records processed, by outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected records, by reason.",
		}, []string{"reason"}),
		defaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_defaulted_total",
			Help:      "Accepted records whose author matched no era/tradition bucket.",
		}),
		quality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Quality score of accepted records.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		corpusEra: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "era_records",
			Help:      "Records in the emitted corpus, by era.",
		}, []string{"era"}),
		corpusTradition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "tradition_records",
			Help:      "Records in the emitted corpus, by tradition.",
		}, []string{"tradition"}),
		corpusSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "records",
			Help:      "Records in the emitted corpus.",
		}),
		meanQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "mean_quality",
			Help:      "Mean quality score of the emitted corpus.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last assembly run finished.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last assembly run.",
		}),
	}

	c.reg.MustRegister(
		c.records, c.rejected, c.defaulted, c.quality,
		c.corpusEra, c.corpusTradition, c.corpusSize, c.meanQuality,
		c.lastRun, c.lastDuration,
	)

	// Pre-create label values so zero counts are exported.
	for _, o := range []string{OutcomeCarried, OutcomeAccepted, OutcomeRejected} {
		c.records.WithLabelValues(o)
	}
	for _, r := range assemble.Reasons {
		c.rejected.WithLabelValues(string(r))
	}
	return c
}

// Registry returns the registry holding every collector.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Carried implements assemble.Observer.
func (c *Collector) Carried(quote.Record) {
	c.records.WithLabelValues(OutcomeCarried).Inc()
}

// Accepted implements assemble.Observer.
func (c *Collector) Accepted(r quote.Record) {
	c.records.WithLabelValues(OutcomeAccepted).Inc()
	c.quality.Observe(r.QualityScore)
}

// Rejected implements assemble.Observer.
func (c *Collector) Rejected(rej *assemble.Rejection) {
	c.records.WithLabelValues(OutcomeRejected).Inc()
	c.rejected.WithLabelValues(string(rej.Reason)).Inc()
}

// Defaulted implements assemble.Observer.
func (c *Collector) Defaulted(taxonomy.Classification) {
	c.defaulted.Inc()
}

// ObserveRun replaces the corpus gauges with the composition in stats.
// Counters keep accumulating across runs.
func (c *Collector) ObserveRun(stats *assemble.Stats) {
	if stats == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range taxonomy.Eras {
		c.corpusEra.WithLabelValues(string(e)).Set(float64(stats.ByEra[e]))
	}
	for _, t := range taxonomy.Traditions {
		c.corpusTradition.WithLabelValues(string(t)).Set(float64(stats.ByTradition[t]))
	}
	c.corpusSize.Set(float64(stats.Total()))
	c.meanQuality.Set(stats.MeanQuality)
	if !stats.FinishedAt.IsZero() {
		c.lastRun.Set(float64(stats.FinishedAt.Unix()))
		c.lastDuration.Set(stats.FinishedAt.Sub(stats.StartedAt).Seconds())
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
