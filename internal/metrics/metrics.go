// Package metrics exposes pipeline counters through a prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pable/go-cs-forecast/internal/model"
)

// Pipeline records replay outcomes. It satisfies features.Recorder.
type Pipeline struct {
	reg *prometheus.Registry

	rowsEmitted  *prometheus.CounterVec
	rowsSkipped  *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	liveRequests *prometheus.CounterVec
}

// New registers the pipeline collectors on a fresh registry. withRuntime
// also registers the Go and process collectors, which only make sense for
// the long-running server.
func New(withRuntime bool) *Pipeline {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Pipeline{
		reg: reg,
		rowsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csforecast_rows_emitted_total",
			Help: "Feature rows emitted, by whether any input was imputed",
		}, []string{"imputed"}),
		rowsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csforecast_rows_skipped_total",
			Help: "Source matches that produced no feature row, by reason",
		}, []string{"reason"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "csforecast_run_duration_seconds",
			Help:    "Duration of feature replays",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		liveRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csforecast_live_requests_total",
			Help: "Live featurization requests, by result",
		}, []string{"result"}),
	}
}

func (p *Pipeline) RowEmitted(imputed bool) {
	label := "false"
	if imputed {
		label = "true"
	}
	p.rowsEmitted.WithLabelValues(label).Inc()
}

func (p *Pipeline) RowSkipped(reason model.Reason) {
	p.rowsSkipped.WithLabelValues(string(reason)).Inc()
}

// ObserveRun records how long a replay of the given kind took.
func (p *Pipeline) ObserveRun(kind string, d time.Duration) {
	p.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// LiveRequest counts a live request outcome: "row", "skip" or "error".
func (p *Pipeline) LiveRequest(result string) {
	p.liveRequests.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

// WriteTextfile writes the current values for the node_exporter textfile
// collector.
func (p *Pipeline) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}

// Gatherer exposes the registry for tests and custom exporters.
func (p *Pipeline) Gatherer() prometheus.Gatherer { return p.reg }
