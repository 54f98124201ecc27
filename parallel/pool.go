// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the available CPU parallelism.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }

// Map applies fn to every item using at most workers goroutines and
// returns the results in the order of in. workers < 1 means
// DefaultWorkers().
//
// The first error cancels the context passed to the remaining calls and is
// returned with a nil result slice. Items are handed to fn by value; fn
// must not mutate shared state.
func Map[In, Out any](ctx context.Context, in []In, workers int, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	if workers < 1 {
		workers = DefaultWorkers()
	}

	out := make([]Out, len(in))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range in {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, item)
			if err != nil {
				return err
			}
			out[i] = v // each index is written by exactly one goroutine
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
