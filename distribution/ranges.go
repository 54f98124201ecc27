// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
	"gonum.org/v1/gonum/floats"
)

// geometricUpper is the numerator of the geometric upper bound 50/c.
const geometricUpper = 50.0

// ParameterRange returns n candidate scale values for kind, tuned to a
// charging time of c slots. External optimisers and sweeps use the result
// as bounds (n=2) or as a grid.
//
//   - Geometric: log-spaced over [1/c, min(1, 50/c)].
//   - Uniform:   integers, linearly spaced over [2, c+1] (truncated).
//   - Poisson:   integers, linearly spaced over [1, (c+1)/2] (truncated).
//
// For n == 1 the lower bound alone is returned.
func ParameterRange(kind Kind, c, n int) ([]float64, error) {
	if c < 1 || n < 1 {
		return nil, distErrorf(opRange, fmt.Errorf("c=%d n=%d must both be ≥ 1: %w", c, n, disco.ErrInvalidArgument))
	}

	out := make([]float64, n)
	switch kind {
	case Geometric:
		lo := 1 / float64(c)
		hi := math.Min(1, geometricUpper/float64(c))
		span(out, lo, hi, floats.LogSpan)
	case Uniform:
		span(out, 2, float64(c+1), floats.Span)
		truncate(out)
	case Poisson:
		span(out, 1, float64((c+1)/2), floats.Span)
		truncate(out)
	default:
		return nil, distErrorf(opRange, fmt.Errorf("unknown kind %d: %w", int(kind), disco.ErrInvalidArgument))
	}

	return out, nil
}

// span fills dst with f, which panics for fewer than two points.
func span(dst []float64, lo, hi float64, f func([]float64, float64, float64) []float64) {
	if len(dst) == 1 {
		dst[0] = lo
		return
	}
	f(dst, lo, hi)
}

func truncate(v []float64) {
	for i := range v {
		v[i] = math.Trunc(v[i])
	}
}
