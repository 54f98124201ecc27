// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for model builds, the
// parallel rendezvous partitions and sweep jobs.
//
// Every method is safe on a nil *Collector, so instrumented code can take
// an optional collector without branching.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sweep job outcomes used as the status label.
const (
	StatusOK       = "ok"
	StatusWarning  = "not_converged"
	StatusFailed   = "error"
	StatusCanceled = "canceled"
)

// Collector bundles the disco metrics and serves them over HTTP.
type Collector struct {
	gatherer prometheus.Gatherer

	ModelsBuilt         prometheus.Counter
	Partitions          prometheus.Counter
	PartitionDuration   prometheus.Histogram
	ConvergenceWarnings prometheus.Counter
	SweepJobs           *prometheus.CounterVec
}

// NewCollector registers the disco metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	built, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disco_models_built_total",
		Help: "Number of discovery models successfully constructed.",
	}), "disco_models_built_total")
	if err != nil {
		return nil, err
	}
	partitions, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disco_partitions_total",
		Help: "Number of rendezvous row partitions processed.",
	}), "disco_partitions_total")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "disco_partition_duration_seconds",
		Help:    "Wall time spent computing one rendezvous partition.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}), "disco_partition_duration_seconds")
	if err != nil {
		return nil, err
	}
	warnings, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disco_convergence_warnings_total",
		Help: "Number of discovery fractions that ended below their threshold.",
	}), "disco_convergence_warnings_total")
	if err != nil {
		return nil, err
	}
	jobs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disco_sweep_jobs_total",
		Help: "Number of sweep jobs evaluated, labeled by outcome.",
	}, []string{"status"}), "disco_sweep_jobs_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:            gatherer,
		ModelsBuilt:         built,
		Partitions:          partitions,
		PartitionDuration:   duration,
		ConvergenceWarnings: warnings,
		SweepJobs:           jobs,
	}, nil
}

// ModelBuilt counts one constructed model.
func (c *Collector) ModelBuilt() {
	if c == nil {
		return
	}
	c.ModelsBuilt.Inc()
}

// ObservePartition records one rendezvous partition. It satisfies
// rendezvous.Observer.
func (c *Collector) ObservePartition(_ int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Partitions.Inc()
	c.PartitionDuration.Observe(elapsed.Seconds())
}

// ConvergenceWarning counts one unconverged discovery fraction.
func (c *Collector) ConvergenceWarning() {
	if c == nil {
		return
	}
	c.ConvergenceWarnings.Inc()
}

// SweepJob counts one finished sweep job with the given status.
func (c *Collector) SweepJob(status string) {
	if c == nil {
		return
	}
	c.SweepJobs.WithLabelValues(status).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("metrics: collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
