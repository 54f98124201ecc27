// SPDX-License-Identifier: MIT

package activity

import (
	"log/slog"
	"math"
)

// Defaults for the convergence shortcut.
const (
	// DefaultWindowPeriods is the number of renewal periods that must be
	// flat before the remaining horizon is filled by repetition.
	DefaultWindowPeriods = 10

	// DefaultTolerance is the sample standard deviation below which the
	// window counts as flat.
	DefaultTolerance = 1e-9
)

const (
	panicWindowInvalid    = "activity: WithWindowPeriods: n must be ≥ 1"
	panicToleranceInvalid = "activity: WithTolerance: tol must be finite and ≥ 0"
)

// Option configures Synthesize. Constructors panic only on nonsensical
// values (programmer error).
type Option func(*options)

type options struct {
	windowPeriods int
	tolerance     float64
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		windowPeriods: DefaultWindowPeriods,
		tolerance:     DefaultTolerance,
		logger:        slog.New(slog.DiscardHandler),
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithWindowPeriods sets how many renewal periods must be flat before
// fast-forwarding.
func WithWindowPeriods(n int) Option {
	if n < 1 {
		panic(panicWindowInvalid)
	}
	return func(o *options) { o.windowPeriods = n }
}

// WithTolerance sets the flatness threshold. Zero disables the shortcut
// for anything but an exactly constant window.
func WithTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(panicToleranceInvalid)
	}
	return func(o *options) { o.tolerance = tol }
}

// WithLogger routes debug events (wake-up count, fast-forward) to l.
// A nil logger keeps the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
