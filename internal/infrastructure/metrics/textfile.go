// Package metrics exports run results in the Prometheus textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/doeshing/socprobe/internal/domain"
	"github.com/doeshing/socprobe/internal/ports"
)

const namespace = "socprobe"

// TextfileExporter writes gauges for one run to a file picked up by the
// node_exporter textfile collector.
type TextfileExporter struct {
	Path string

	registry         *prometheus.Registry
	healthScore      prometheus.Gauge
	componentHealthy *prometheus.GaugeVec
	probeDuration    *prometheus.GaugeVec
	verdictCode      prometheus.Gauge
	lastRun          prometheus.Gauge
}

// NewTextfileExporter registers the run gauges on a private registry.
func NewTextfileExporter(path string) *TextfileExporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &TextfileExporter{
		Path:     path,
		registry: reg,
		healthScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Percentage of healthy components in the last run.",
		}),
		componentHealthy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_healthy",
			Help:      "1 if the component was healthy in the last run, else 0.",
		}, []string{"component"}),
		probeDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall time spent probing the component.",
		}, []string{"component"}),
		verdictCode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "verdict_code",
			Help:      "Exit code of the last run: 0 healthy, 1 degraded, 2 unhealthy.",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}),
	}
}

// Export implements ports.MetricsExporter.
func (e *TextfileExporter) Export(report domain.HealthReport) error {
	e.Observe(report)
	if err := prometheus.WriteToTextfile(e.Path, e.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Observe sets every gauge from report.
func (e *TextfileExporter) Observe(report domain.HealthReport) {
	e.healthScore.Set(report.Score)
	e.verdictCode.Set(float64(report.Verdict.ExitCode()))
	e.lastRun.Set(float64(report.StartedAt.Unix()))
	for _, result := range report.Results {
		healthy := 0.0
		if result.Healthy() {
			healthy = 1
		}
		e.componentHealthy.WithLabelValues(string(result.Component)).Set(healthy)
		e.probeDuration.WithLabelValues(string(result.Component)).Set(result.Latency.Seconds())
	}
}

var _ ports.MetricsExporter = (*TextfileExporter)(nil)
