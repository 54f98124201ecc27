// SPDX-License-Identifier: MIT

package model

import (
	"log/slog"

	"github.com/katalvlaran/disco/activity"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/parallel"
)

// Defaults for model construction and queries.
const (
	// DefaultSlots is the simulated horizon.
	DefaultSlots = 100000

	// DefaultNodes is used when neither WithNodes nor the parameter slices
	// imply a node count.
	DefaultNodes = 2

	// DefaultConvergenceThreshold is the discovery fraction the horizon
	// must reach for a result to count as converged.
	DefaultConvergenceThreshold = 0.975
)

// Option configures New and NewHeterogeneous. Values are validated at
// construction time and reported as disco.ErrInvalidArgument.
type Option func(*options)

type options struct {
	nodes   int // 0 = derive
	slots   int
	jobs    int
	offset  *int
	offsets []int
	logger  *slog.Logger
	metrics *metrics.Collector
	synth   []activity.Option
}

func gatherOptions(opts []Option) options {
	o := options{
		slots:  DefaultSlots,
		jobs:   parallel.DefaultWorkers(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithNodes sets the number of nodes in the clique.
func WithNodes(n int) Option {
	return func(o *options) { o.nodes = n }
}

// WithSlots sets the simulated horizon in slots.
func WithSlots(n int) Option {
	return func(o *options) { o.slots = n }
}

// WithJobs sets the rendezvous parallelism. n < 1 restores the default
// (all available CPUs).
func WithJobs(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = parallel.DefaultWorkers()
		}
		o.jobs = n
	}
}

// WithOffset shifts the second of exactly two nodes by shift slots; it is
// shorthand for WithOffsets(0, shift). It replaces any earlier WithOffsets.
func WithOffset(shift int) Option {
	return func(o *options) {
		o.offset = &shift
		o.offsets = nil
	}
}

// WithOffsets sets one wake-up offset per node. It replaces any earlier
// WithOffset. An empty list is a count mismatch, not a request for the
// default offsets.
func WithOffsets(offsets ...int) Option {
	cp := make([]int, len(offsets))
	copy(cp, offsets)
	return func(o *options) {
		o.offsets = cp
		o.offset = nil
	}
}

// WithLogger routes construction and query events to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports builds, partitions and convergence warnings to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithSynthesis forwards options to activity.Synthesize.
func WithSynthesis(opts ...activity.Option) Option {
	return func(o *options) { o.synth = append(o.synth, opts...) }
}

func (o options) synthOptions() []activity.Option {
	return append([]activity.Option{activity.WithLogger(o.logger)}, o.synth...)
}
