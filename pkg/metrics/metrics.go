// Package metrics holds molview's prometheus collectors. Collectors live on
// a private registry so tests and embedded sessions never collide with the
// global default registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "molview"

// Pick outcomes.
const (
	OutcomeAtom = "atom"
	OutcomeBond = "bond"
	OutcomeMiss = "miss"
)

var DefaultInferenceBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}

// Metrics is the set of collectors observed by a viewer session.
type Metrics struct {
	registry *prometheus.Registry

	Loads             *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	Atoms             prometheus.Gauge
	Bonds             prometheus.Gauge
	Picks             *prometheus.CounterVec
	SelectionSize     prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Structure loads by result.",
		}, []string{"result"}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bond_inference_duration_seconds",
			Help:      "Time spent inferring bonds.",
			Buckets:   DefaultInferenceBuckets,
		}),
		Atoms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "atoms",
			Help:      "Atoms in the current structure.",
		}),
		Bonds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bonds",
			Help:      "Bonds in the current structure.",
		}),
		Picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picks_total",
			Help:      "Pick requests by outcome.",
		}, []string{"outcome"}),
		SelectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selection_size",
			Help:      "Atoms currently selected.",
		}),
	}
	m.registry.MustRegister(m.Loads, m.InferenceDuration, m.Atoms, m.Bonds, m.Picks, m.SelectionSize)
	return m
}

// Registry exposes the private registry for scraping or dumping.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveLoad records a load attempt. Counts are only updated on success.
func (m *Metrics) ObserveLoad(err error, atoms, bonds int, inference time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.Loads.WithLabelValues("failed").Inc()
		return
	}
	m.Loads.WithLabelValues("ok").Inc()
	m.InferenceDuration.Observe(inference.Seconds())
	m.Atoms.Set(float64(atoms))
	m.Bonds.Set(float64(bonds))
}

// ObservePick records a pick outcome and the resulting selection size.
func (m *Metrics) ObservePick(outcome string, selected int) {
	if m == nil {
		return
	}
	m.Picks.WithLabelValues(outcome).Inc()
	m.SelectionSize.Set(float64(selected))
}

// ObserveSelection updates the selection gauge after a clear or reload.
func (m *Metrics) ObserveSelection(selected int) {
	if m == nil {
		return
	}
	m.SelectionSize.Set(float64(selected))
}

// WriteFile dumps the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
