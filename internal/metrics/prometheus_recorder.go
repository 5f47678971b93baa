package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "nbdocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry            *prom.Registry
	stageDuration       *prom.HistogramVec
	buildDuration       prom.Histogram
	stageResults        *prom.CounterVec
	buildOutcome        *prom.CounterVec
	conversionDuration  *prom.HistogramVec
	conversionResults   *prom.CounterVec
	notebooksDiscovered prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.conversionDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "conversion_duration_seconds",
		Help:      "Duration of individual notebook conversions",
		Buckets:   prom.ExponentialBuckets(0.25, 2, 8),
	}, []string{"section", "result"})
	pr.conversionResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "conversion_results_total",
		Help:      "Notebook conversion results by success/failure",
	}, []string{"result"})
	pr.notebooksDiscovered = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "notebooks_discovered",
		Help:      "Notebooks found by the last build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.conversionDuration, pr.conversionResults, pr.notebooksDiscovered)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveConversionDuration(section string, d time.Duration, success bool) {
	if p == nil || p.conversionDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.conversionDuration.WithLabelValues(section, res).Observe(d.Seconds())
	p.conversionResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetNotebooksDiscovered(n int) {
	if p == nil || p.notebooksDiscovered == nil {
		return
	}
	p.notebooksDiscovered.Set(float64(n))
}

// WriteTextfile writes all gathered metrics to path in the text exposition
// format. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
