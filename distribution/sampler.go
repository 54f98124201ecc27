// SPDX-License-Identifier: MIT

package distribution

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/parallel"
)

// Sampler draws delays from a distribution by inverse-transform sampling,
// the way the firmware does with its quantized table. It is not safe for
// concurrent use; give every goroutine its own stream.
type Sampler struct {
	d   Distribution
	rng *rand.Rand
}

// NewSampler binds d to the PCG stream (seed, stream). Equal pairs
// reproduce the same draws on every platform.
func NewSampler(d Distribution, seed, stream uint64) *Sampler {
	return &Sampler{d: d, rng: rand.New(rand.NewPCG(seed, stream))}
}

// Draw returns one delay in slots.
func (s *Sampler) Draw() (int, error) {
	u := s.rng.Float64()
	for u == 0 { // InverseCDF needs q ∈ (0,1)
		u = s.rng.Float64()
	}

	return s.d.InverseCDF(u)
}

// DrawN returns n delays.
func (s *Sampler) DrawN(n int) ([]int, error) {
	out := make([]int, n)
	var err error
	for i := range out {
		if out[i], err = s.Draw(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Sample draws n delays on up to streams workers. The draws are split
// into contiguous spans with parallel.Partition; the span starting at
// draw k uses stream k of seed, so the result depends on (seed, streams)
// only.
//
// Errors: disco.ErrInvalidArgument for n < 1; ctx.Err() on cancellation.
func Sample(ctx context.Context, d Distribution, n int, seed uint64, streams int) ([]int, error) {
	if n < 1 {
		return nil, distErrorf(opSample, fmt.Errorf("n=%d must be ≥ 1: %w", n, disco.ErrInvalidArgument))
	}

	spans := parallel.Partition(n, streams)
	parts, err := parallel.Map(ctx, spans, len(spans), func(_ context.Context, s parallel.Span) ([]int, error) {
		return NewSampler(d, seed, uint64(s.Start)).DrawN(s.Len())
	})
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
