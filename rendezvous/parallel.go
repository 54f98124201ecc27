// SPDX-License-Identifier: MIT

package rendezvous

import (
	"context"
	"fmt"
	"time"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/parallel"
	"gonum.org/v1/gonum/mat"
)

// ComputeParallel is Compute spread over jobs workers along the slot axis.
// jobs ≤ 1 (or a single-row matrix) is a direct Compute call. Otherwise
// the rows are partitioned with parallel.Partition, each partition is
// computed on a row view and the results are stacked in slot order.
//
// The result is bit-identical to Compute(act). On error or cancellation
// no partial matrix is returned.
func ComputeParallel(ctx context.Context, act *mat.Dense, jobs int, opts ...Option) (*mat.Dense, error) {
	if act == nil {
		return nil, fmt.Errorf("rendezvous: nil activity: %w", disco.ErrInvalidArgument)
	}
	o := gatherOptions(opts)
	rows, nodes := act.Dims()

	spans := parallel.Partition(rows, jobs)
	if len(spans) <= 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return o.timed(rows, func() (*mat.Dense, error) { return Compute(act) })
	}
	o.logger.Debug("rendezvous partitions", "rows", rows, "nodes", nodes, "partitions", len(spans))

	parts, err := parallel.Map(ctx, spans, len(spans), func(_ context.Context, s parallel.Span) (*mat.Dense, error) {
		view := act.Slice(s.Start, s.End, 0, nodes)
		return o.timed(s.Len(), func() (*mat.Dense, error) { return Compute(view) })
	})
	if err != nil {
		return nil, err
	}

	// Stack partitions back in slot order.
	links := LinkCount(nodes)
	out := mat.NewDense(rows, links, nil)
	for i, s := range spans {
		out.Slice(s.Start, s.End, 0, links).(*mat.Dense).Copy(parts[i])
	}

	return out, nil
}

func (o options) timed(rows int, f func() (*mat.Dense, error)) (*mat.Dense, error) {
	start := time.Now()
	m, err := f()
	if err == nil && o.observer != nil {
		o.observer.ObservePartition(rows, time.Since(start))
	}
	return m, err
}
