package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHandler serves the metrics gathered by registry.
func PrometheusHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// PrometheusRegistry returns a registry preloaded with the build info and Go runtime
// collectors.
func PrometheusRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewBuildInfoCollector())
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

// PrometheusFactory returns a factory registering its metrics in registry, or a void one
// when metrics are not enabled.
func PrometheusFactory(registry *prometheus.Registry) Factory {
	if !enabled {
		return &noopFactory{}
	}
	return &prometheusFactory{factory: promauto.With(registry)}
}

type prometheusFactory struct {
	factory promauto.Factory
}

func (d *prometheusFactory) NewCounter(opts CounterOpts) Counter {
	return d.factory.NewCounter(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
	})
}

func (d *prometheusFactory) NewCounterVec(opts CounterOpts, labelNames []string) Vec[Counter] {
	return promCounterVec{d.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
	}, labelNames)}
}

func (d *prometheusFactory) NewGauge(opts GaugeOpts) Gauge {
	return d.factory.NewGauge(prometheus.GaugeOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
	})
}

func (d *prometheusFactory) NewHistogram(opts HistogramOpts) Histogram {
	return d.factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
		Buckets:   opts.Buckets,
	})
}

func (d *prometheusFactory) NewHistogramVec(opts HistogramOpts, labelNames []string) Vec[Histogram] {
	return promHistogramVec{d.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      opts.Help,
		Buckets:   opts.Buckets,
	}, labelNames)}
}

type promCounterVec struct {
	v *prometheus.CounterVec
}

func (c promCounterVec) WithLabelValues(lvls ...string) Counter {
	return c.v.WithLabelValues(lvls...)
}

type promHistogramVec struct {
	v *prometheus.HistogramVec
}

func (c promHistogramVec) WithLabelValues(lvls ...string) Histogram {
	return c.v.WithLabelValues(lvls...)
}
