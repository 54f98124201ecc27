// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
)

// maxScan bounds linear cdf scans; reaching it means the cdf never climbs
// to the requested level, which only happens with broken numerics.
const maxScan = 1 << 26

// MinSupport returns the smallest index k ≥ max(1, mode) with PMF(k) ≤ thr.
// Past the mode every variant's pmf is non-increasing, so all mass beyond
// the returned index is below thr as well. A non-positive or NaN thr falls
// back to DefaultSupportThreshold.
//
// Starting at the mode (and not at 1) matters for Poisson with large λ,
// whose left tail also dips below thr.
func (d *Dist) MinSupport(thr float64) int {
	if !(thr > 0) {
		thr = DefaultSupportThreshold
	}

	k := d.kern.mode()
	if k < 1 {
		k = 1
	}
	for d.kern.pmf(k) > thr {
		k++
	}

	return k
}

// InverseCDF returns the smallest k with CDF(k) ≥ q, for q ∈ (0,1).
//
// Errors:
//   - disco.ErrInvalidArgument if q is outside (0,1) or NaN.
//   - disco.ErrNumericAnomaly if the cdf never reaches q.
func (d *Dist) InverseCDF(q float64) (int, error) {
	if !(q > 0 && q < 1) {
		return 0, distErrorf(opInverseCDF, fmt.Errorf("q=%v not in (0,1): %w", q, disco.ErrInvalidArgument))
	}
	if k, ok := d.kern.quantile(q); ok {
		return k, nil
	}

	for k := 0; k < maxScan; k++ {
		c := d.kern.cdf(k)
		if math.IsNaN(c) {
			return 0, distErrorf(opInverseCDF, fmt.Errorf("cdf(%d) is NaN: %w", k, disco.ErrNumericAnomaly))
		}
		if c >= q {
			return k, nil
		}
	}

	return 0, distErrorf(opInverseCDF, fmt.Errorf("cdf did not reach q=%v within %d slots: %w", q, maxScan, disco.ErrNumericAnomaly))
}
