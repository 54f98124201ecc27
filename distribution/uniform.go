// SPDX-License-Identifier: MIT

package distribution

// uniform is the discrete uniform delay on {0, …, n-1}.
type uniform struct {
	n int
}

func (u uniform) pmf(k int) float64 {
	if k >= u.n {
		return 0
	}
	return 1 / float64(u.n)
}

func (u uniform) cdf(k int) float64 {
	if k >= u.n-1 {
		return 1
	}
	return float64(k+1) / float64(u.n)
}

func (u uniform) mean() float64 { return float64(u.n-1) / 2 }

func (u uniform) mode() int { return 0 }

func (u uniform) quantile(float64) (int, bool) { return 0, false }

func (u uniform) nsum(int, int) []float64 { return nil }
