// SPDX-License-Identifier: MIT

package sweep

import (
	"log/slog"

	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/model"
	"github.com/katalvlaran/disco/parallel"
)

// Defaults for sweep grids.
const (
	// DefaultDistributionSlots is the horizon of distribution sweeps.
	DefaultDistributionSlots = 250000

	// DefaultFitSlots is the horizon of each FitScale evaluation.
	DefaultFitSlots = 100000

	// DefaultXTol is the absolute tolerance on the fitted scale.
	DefaultXTol = 1e-5

	// DefaultMaxEval bounds objective evaluations per fit.
	DefaultMaxEval = 500
)

// Option configures Run, FitScale and RunFits.
type Option func(*options)

type options struct {
	workers   int
	threshold float64
	xtol      float64
	maxEval   int
	logger    *slog.Logger
	metrics   *metrics.Collector
}

func gatherOptions(opts []Option) options {
	o := options{
		workers:   parallel.DefaultWorkers(),
		threshold: model.DefaultConvergenceThreshold,
		xtol:      DefaultXTol,
		maxEval:   DefaultMaxEval,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithWorkers bounds the number of jobs evaluated at once. n < 1 uses all
// CPUs.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = parallel.DefaultWorkers()
		}
		o.workers = n
	}
}

// WithThreshold sets the convergence threshold every evaluated model is
// checked against, in Run and in each FitScale objective call.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithTolerance sets the absolute scale tolerance of FitScale. It panics
// on a non-positive value.
func WithTolerance(xtol float64) Option {
	if !(xtol > 0) {
		panic("sweep: WithTolerance: xtol must be > 0")
	}
	return func(o *options) { o.xtol = xtol }
}

// WithMaxEvaluations bounds FitScale objective evaluations. It panics on
// n < 1.
func WithMaxEvaluations(n int) Option {
	if n < 1 {
		panic("sweep: WithMaxEvaluations: n must be ≥ 1")
	}
	return func(o *options) { o.maxEval = n }
}

// WithLogger routes progress events to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics counts finished jobs by status and passes c to every model.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}
