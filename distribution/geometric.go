// SPDX-License-Identifier: MIT

package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// geometric is the 0-indexed geometric delay: P(k) = p(1-p)^k.
type geometric struct {
	p float64
}

func (g geometric) pmf(k int) float64 {
	if g.p == 1 {
		if k == 0 {
			return 1
		}
		return 0
	}

	return g.p * math.Pow(1-g.p, float64(k))
}

func (g geometric) cdf(k int) float64 {
	return 1 - math.Pow(1-g.p, float64(k+1))
}

// mean is the textbook (1-indexed) mean 1/p.
func (g geometric) mean() float64 { return 1 / g.p }

func (g geometric) mode() int { return 0 }

// quantile inverts cdf in closed form and corrects float rounding by one
// step in either direction.
func (g geometric) quantile(q float64) (int, bool) {
	if g.p == 1 {
		return 0, true
	}

	k := int(math.Ceil(math.Log1p(-q)/math.Log1p(-g.p))) - 1
	if k < 0 {
		k = 0
	}
	for k > 0 && g.cdf(k-1) >= q {
		k--
	}
	for g.cdf(k) < q {
		k++
	}

	return k, true
}

// nsum is the negative binomial pmf: the number of failures before the
// r-th success, P(k) = C(k+r-1, k) p^r (1-p)^k, evaluated in log space.
func (g geometric) nsum(r, length int) []float64 {
	out := make([]float64, length)
	if g.p == 1 {
		out[0] = 1
		return out
	}

	logP := float64(r) * math.Log(g.p)
	logQ := math.Log1p(-g.p)
	for k := range out {
		lb := combin.LogGeneralizedBinomial(float64(k+r-1), float64(k))
		out[k] = math.Exp(lb + logP + float64(k)*logQ)
	}

	return out
}
