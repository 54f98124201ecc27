// SPDX-License-Identifier: MIT

package distribution

// NewFromPMF wraps an arbitrary pmf in a *Dist so tests can push broken
// numerics through the exported API. The cdf is the running sum.
func NewFromPMF(kind Kind, pmf func(k int) float64) *Dist {
	return &Dist{kind: kind, scale: 1, kern: funcKernel(pmf)}
}

type funcKernel func(k int) float64

func (f funcKernel) pmf(k int) float64 { return f(k) }

func (f funcKernel) cdf(k int) float64 {
	var c float64
	for i := 0; i <= k; i++ {
		c += f(i)
	}
	return c
}

func (funcKernel) mean() float64 { return 1 }

func (funcKernel) mode() int { return 0 }

func (funcKernel) quantile(float64) (int, bool) { return 0, false }

func (funcKernel) nsum(int, int) []float64 { return nil }
