// SPDX-License-Identifier: MIT

package rendezvous

import (
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
	"gonum.org/v1/gonum/mat"
)

// Compute returns the rows×L rendezvous matrix for an activity matrix with
// one column per node, L = LinkCount(columns).
//
// Errors:
//   - disco.ErrInvalidArgument: fewer than two columns or no rows.
//   - disco.ErrNumericAnomaly: an activity value outside [0,1] or NaN.
//
// Complexity: O(rows·N²) time, O(rows·N²) space for the output.
func Compute(act mat.Matrix) (*mat.Dense, error) {
	if act == nil {
		return nil, fmt.Errorf("rendezvous: nil activity: %w", disco.ErrInvalidArgument)
	}
	rows, nodes := act.Dims()
	if nodes < 2 {
		return nil, fmt.Errorf("rendezvous: %d nodes, need ≥ 2: %w", nodes, disco.ErrInvalidArgument)
	}
	if rows < 1 {
		return nil, fmt.Errorf("rendezvous: empty activity: %w", disco.ErrInvalidArgument)
	}

	out := mat.NewDense(rows, LinkCount(nodes), nil)
	read := rowReader(act)
	buf := make([]float64, nodes)
	pre := make([]float64, nodes+1) // pre[k] = Π_{m<k}(1-a[m])
	suf := make([]float64, nodes+1) // suf[k] = Π_{m≥k}(1-a[m])

	for r := 0; r < rows; r++ {
		a := read(r, buf)
		for k, v := range a {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return nil, fmt.Errorf("rendezvous: activity[%d][%d]=%v: %w", r, k, v, disco.ErrNumericAnomaly)
			}
		}
		row(out.RawRowView(r), a, pre, suf)
	}

	return out, nil
}

// row fills dst with the link probabilities of one slot.
func row(dst, a, pre, suf []float64) {
	n := len(a)
	pre[0] = 1
	for k := 0; k < n; k++ {
		pre[k+1] = pre[k] * (1 - a[k])
	}
	suf[n] = 1
	for k := n - 1; k >= 0; k-- {
		suf[k] = suf[k+1] * (1 - a[k])
	}

	l := 0
	for i := 0; i < n-1; i++ {
		// mid accumulates Π_{i<m<j}(1-a[m]) as j advances.
		mid := 1.0
		for j := i + 1; j < n; j++ {
			dst[l] = a[i] * a[j] * pre[i] * mid * suf[j+1]
			mid *= 1 - a[j]
			l++
		}
	}
}

// rowReader avoids copying when the matrix exposes raw rows.
func rowReader(m mat.Matrix) func(r int, buf []float64) []float64 {
	if rv, ok := m.(mat.RawRowViewer); ok {
		return func(r int, _ []float64) []float64 { return rv.RawRowView(r) }
	}
	return func(r int, buf []float64) []float64 { return mat.Row(buf, r, m) }
}
