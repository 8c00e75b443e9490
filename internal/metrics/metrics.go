// Package metrics records conversion and ingestion counters for Prometheus.
//
// The CLI is short-lived, so metrics are not served over HTTP; when a
// textfile path is configured they are written in the node_exporter
// textfile format at the end of a command.
package metrics

import (
	"time"

	"github.com/dbsmedya/formrows/internal/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the registered metrics. A nil Collector, or one built
// from a disabled config, records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	rowsTotal          *prometheus.CounterVec
	coercionFailures   *prometheus.CounterVec
	ingestsTotal       *prometheus.CounterVec
	attachmentsTotal   *prometheus.CounterVec
}

// NewCollector creates and registers the metrics. If registry is nil a new
// one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "formrows"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		conversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "conversions_total",
				Help:      "Submissions converted to table rows, by outcome",
			},
			[]string{"form", "table", "status"},
		),
		conversionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Time to convert one submission",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"form", "table"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rows_total",
				Help:      "Rows produced by conversions",
			},
			[]string{"form", "table"},
		),
		coercionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "coercion_failures_total",
				Help:      "Field values dropped because they did not parse as their type",
			},
			[]string{"form", "kind"},
		),
		ingestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ingests_total",
				Help:      "Submission ingest attempts, by outcome",
			},
			[]string{"form", "outcome"},
		),
		attachmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "attachments_total",
				Help:      "Attachment files received, by outcome",
			},
			[]string{"form", "outcome"},
		),
	}

	registry.MustRegister(
		c.conversionsTotal,
		c.conversionDuration,
		c.rowsTotal,
		c.coercionFailures,
		c.ingestsTotal,
		c.attachmentsTotal,
	)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveConversion records one submission conversion.
func (c *Collector) ObserveConversion(form, table string, rows int, duration time.Duration, err error) {
	if !c.enabled() {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	c.conversionsTotal.WithLabelValues(form, table, status).Inc()
	c.conversionDuration.WithLabelValues(form, table).Observe(duration.Seconds())
	c.rowsTotal.WithLabelValues(form, table).Add(float64(rows))
}

// CoercionFailure records one dropped field value.
func (c *Collector) CoercionFailure(form, kind string) {
	if !c.enabled() {
		return
	}
	c.coercionFailures.WithLabelValues(form, kind).Inc()
}

// ObserveIngest records one ingest attempt and its attachment counts.
// outcome is "created", "reposted", "conflict" or "error".
func (c *Collector) ObserveIngest(form, outcome string, stored, unexpected int) {
	if !c.enabled() {
		return
	}
	c.ingestsTotal.WithLabelValues(form, outcome).Inc()
	c.attachmentsTotal.WithLabelValues(form, "stored").Add(float64(stored))
	c.attachmentsTotal.WithLabelValues(form, "unexpected").Add(float64(unexpected))
}

// WriteTextfile writes all metrics to the configured textfile path. It does
// nothing when metrics are disabled or no path is set.
func (c *Collector) WriteTextfile() error {
	if !c.enabled() || c.config.Textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(c.config.Textfile, c.registry)
}
