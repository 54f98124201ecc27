// SPDX-License-Identifier: MIT

package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// poisson delegates evaluation to gonum's distuv.Poisson.
type poisson struct {
	d distuv.Poisson
}

func newPoisson(lambda float64) poisson {
	return poisson{d: distuv.Poisson{Lambda: lambda}}
}

func (p poisson) pmf(k int) float64 { return p.d.Prob(float64(k)) }

func (p poisson) cdf(k int) float64 { return p.d.CDF(float64(k)) }

func (p poisson) mean() float64 { return p.d.Mean() }

// mode is ⌊λ⌋; the pmf is non-increasing from there on.
func (p poisson) mode() int { return int(math.Floor(p.d.Lambda)) }

func (p poisson) quantile(float64) (int, bool) { return 0, false }

func (p poisson) nsum(int, int) []float64 { return nil }
