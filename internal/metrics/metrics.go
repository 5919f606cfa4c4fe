// Package metrics exposes refresh cycle metrics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
)

const namespace = "ransomwatch"

// Refresh outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

// Recorder records refresh outcomes on its own registry.
// It implements monitor.Observer.
type Recorder struct {
	registry *prometheus.Registry

	refreshes      *prometheus.CounterVec
	duration       prometheus.Histogram
	records        *prometheus.GaugeVec
	sourceFailures *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
	degraded       prometheus.Gauge
}

var _ monitor.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with Go runtime and process collectors
// registered next to the refresh metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Number of refresh attempts by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent on completed refresh cycles",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_records",
			Help:      "Records in each collection of the published snapshot",
		}, []string{"collection"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Number of failed feed requests by source",
		}, []string{"source"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last published snapshot",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_degraded",
			Help:      "1 when the published snapshot is missing optional sources",
		}),
	}

	r.registry.MustRegister(
		r.refreshes, r.duration, r.records,
		r.sourceFailures, r.lastSuccess, r.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRefresh records one refresh attempt.
func (r *Recorder) ObserveRefresh(o monitor.Outcome) {
	switch {
	case o.Skipped || errors.Is(o.Err, monitor.ErrRefreshInProgress):
		r.refreshes.WithLabelValues(outcomeSkipped).Inc()
		return
	case o.Err != nil:
		r.refreshes.WithLabelValues(outcomeFailure).Inc()
	default:
		r.refreshes.WithLabelValues(outcomeSuccess).Inc()
	}
	r.duration.Observe(o.Duration.Seconds())

	if o.Snapshot == nil {
		return
	}
	for _, src := range o.Snapshot.FailedSources() {
		r.sourceFailures.WithLabelValues(src.Name).Inc()
	}
	if o.Err != nil {
		return
	}

	stats := o.Snapshot.Stats()
	for _, name := range model.Collections() {
		r.records.WithLabelValues(name).Set(float64(stats.Count(name)))
	}
	r.lastSuccess.Set(float64(o.Snapshot.AsOf.Unix()))
	if o.Snapshot.Degraded() {
		r.degraded.Set(1)
	} else {
		r.degraded.Set(0)
	}
}

// Registry returns the registry holding the metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
