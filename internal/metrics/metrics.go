// Package metrics counts what a document build produced and writes the
// counts as a Prometheus textfile for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build holds the metrics of one document build. A nil *Build is valid and
// records nothing.
type Build struct {
	registry *prometheus.Registry

	ElementsBuilt      *prometheus.CounterVec
	ReferencesResolved prometheus.Counter
	InvalidElements    prometheus.Gauge
	BuildDuration      prometheus.Histogram
}

// New creates a Build with its own registry.
func New() *Build {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Build{
		registry: reg,
		ElementsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metafmt_elements_built_total",
			Help: "Document elements materialized, by schema type",
		}, []string{"type"}),
		ReferencesResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "metafmt_references_resolved_total",
			Help: "Links resolved through the ID registry",
		}),
		InvalidElements: factory.NewGauge(prometheus.GaugeOpts{
			Name: "metafmt_invalid_elements",
			Help: "Elements reported by validation of the last document",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "metafmt_build_duration_seconds",
			Help:    "Duration of the document walk",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Build) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ElementBuilt counts one element of typeName.
func (m *Build) ElementBuilt(typeName string) {
	if m == nil {
		return
	}
	m.ElementsBuilt.WithLabelValues(typeName).Inc()
}

// ReferenceResolved counts one resolved link.
func (m *Build) ReferenceResolved() {
	if m == nil {
		return
	}
	m.ReferencesResolved.Inc()
}

// SetInvalid records the validation result.
func (m *Build) SetInvalid(n int) {
	if m == nil {
		return
	}
	m.InvalidElements.Set(float64(n))
}

// ObserveDuration starts timing and returns the function that stops it.
//
//	defer m.ObserveDuration()()
func (m *Build) ObserveDuration() func() {
	start := time.Now()
	return func() {
		if m == nil {
			return
		}
		m.BuildDuration.Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is written atomically.
func (m *Build) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
