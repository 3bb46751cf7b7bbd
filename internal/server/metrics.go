package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ccollicutt/probeplot/pkg/probelog"
)

// Metrics holds the collectors exposed on /metrics. Each Metrics owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	linesParsed       *prometheus.CounterVec
	samplesParsed     prometheus.Counter
	malformedLines    prometheus.Counter
	chartsRendered    *prometheus.CounterVec
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probeplot_http_requests_total",
			Help: "Total count of HTTP requests processed by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "probeplot_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		linesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probeplot_lines_parsed_total",
			Help: "Log lines parsed, by the kind of rule that claimed them.",
		}, []string{"kind"}),
		samplesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "probeplot_probe_samples_total",
			Help: "Probe samples extracted from uploaded logs.",
		}),
		malformedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "probeplot_malformed_lines_total",
			Help: "Matched lines skipped because a number did not parse.",
		}),
		chartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probeplot_charts_rendered_total",
			Help: "Charts rendered, by image format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.linesParsed,
		m.samplesParsed,
		m.malformedLines,
		m.chartsRendered,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveInspection records line and sample counts for one parsed log.
func (m *Metrics) ObserveInspection(in *probelog.Inspection) {
	for kind, n := range in.Counts {
		m.linesParsed.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.samplesParsed.Add(float64(len(in.Result.Samples)))
	m.malformedLines.Add(float64(len(in.Malformed)))
}
