// Package metrics provides Prometheus metrics for schema parsing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/structure/core/schema"
)

// Collector holds all Prometheus metrics for schema parsing.
// It implements schema.Observer.
type Collector struct {
	// Parse metrics
	ParsesTotal   *prometheus.CounterVec
	ParseDuration *prometheus.HistogramVec
	ParseErrors   *prometheus.CounterVec

	// Reference metrics
	ReferencesResolved *prometheus.CounterVec

	// Catalog metrics
	CatalogReloads    *prometheus.CounterVec
	CatalogLastReload prometheus.Gauge
	SchemasLoaded     prometheus.Gauge
}

var _ schema.Observer = (*Collector)(nil)

// New creates a collector registered with reg. A nil reg registers with
// the default Prometheus registry.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		ParsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parses_total",
				Help:      "Total number of parses by schema and result",
			},
			[]string{"schema", "result"},
		),
		ParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parse_duration_seconds",
				Help:      "Parse duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"schema"},
		),
		ParseErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_errors_total",
				Help:      "Total number of failed parses by error kind",
			},
			[]string{"schema", "kind"},
		),
		ReferencesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "references_resolved_total",
				Help:      "Total number of named references resolved",
			},
			[]string{"schema", "target"},
		),
		CatalogReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_reloads_total",
				Help:      "Total number of schema catalog reloads by result",
			},
			[]string{"result"},
		),
		CatalogLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_last_reload_timestamp",
				Help:      "Unix timestamp of last successful catalog reload",
			},
		),
		SchemasLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "schemas_loaded",
				Help:      "Number of schemas in the current catalog",
			},
		),
	}
}

// ParseCompleted records one parse.
func (c *Collector) ParseCompleted(name string, elapsed time.Duration, err error) {
	name = SchemaLabel(name)

	c.ParseDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		c.ParsesTotal.WithLabelValues(name, "error").Inc()
		c.ParseErrors.WithLabelValues(name, schema.ErrorKind(err)).Inc()
		return
	}
	c.ParsesTotal.WithLabelValues(name, "ok").Inc()
}

// ReferenceResolved records a named reference resolving for the first time.
func (c *Collector) ReferenceResolved(name, _, target string) {
	c.ReferencesResolved.WithLabelValues(SchemaLabel(name), SchemaLabel(target)).Inc()
}

// CatalogReloaded records a catalog reload. schemas is the number of
// schemas loaded and is ignored when err is non-nil.
func (c *Collector) CatalogReloaded(schemas int, err error) {
	if err != nil {
		c.CatalogReloads.WithLabelValues("error").Inc()
		return
	}
	c.CatalogReloads.WithLabelValues("ok").Inc()
	c.CatalogLastReload.SetToCurrentTime()
	c.SchemasLoaded.Set(float64(schemas))
}

// SchemaLabel returns the label value for a schema name.
// Anonymous definitions share one series; long names are truncated.
func SchemaLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	if len(name) > 100 {
		return name[:100] + "..."
	}
	return name
}
