// SPDX-License-Identifier: MIT

package rendezvous

import (
	"log/slog"
	"time"
)

// Observer receives one call per processed partition. metrics.Collector
// satisfies it.
type Observer interface {
	ObservePartition(rows int, elapsed time.Duration)
}

// Option configures ComputeParallel.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
}

func gatherOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger for the partition count debug event.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver reports each partition's size and duration to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
