package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siteship"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	checks         *prom.CounterVec
	artifactsFound prom.Gauge
	stepDuration   *prom.HistogramVec
	stepResults    *prom.CounterVec
	runOutcomes    *prom.CounterVec
	runDuration    prom.Histogram
	lastRun        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.checks = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "checks_total",
		Help:      "Existence checks by kind and result",
	}, []string{"kind", "result"})
	pr.artifactsFound = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "artifacts_found",
		Help:      "Artifacts found by the most recent artifact check",
	})
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "publish_step_duration_seconds",
		Help:      "Duration of individual publish steps",
		Buckets:   prom.DefBuckets,
	}, []string{"step"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "publish_step_results_total",
		Help:      "Publish step results by outcome",
	}, []string{"step", "result"})
	pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Deployment runs by outcome",
	}, []string{"outcome"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total deployment run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the most recent run finished",
	})
	reg.MustRegister(pr.checks, pr.artifactsFound, pr.stepDuration, pr.stepResults, pr.runOutcomes, pr.runDuration, pr.lastRun)
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) IncCheck(kind string, passed bool) {
	p.checks.WithLabelValues(kind, string(ResultFor(passed))).Inc()
}

func (p *PrometheusRecorder) SetArtifactsFound(n int) {
	p.artifactsFound.Set(float64(n))
}

func (p *PrometheusRecorder) ObservePublishStep(step string, d time.Duration, ok bool) {
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	p.stepResults.WithLabelValues(step, string(ResultFor(ok))).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcomes.WithLabelValues(outcome).Inc()
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry in node exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

// HTTPHandler returns an http.Handler that serves metrics for the recorder's registry.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
