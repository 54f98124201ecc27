// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
)

// Renewal iterates over the pmfs of the sum of 1, 2, …, n independent
// draws. Step i (0-based) is obtained from step i-1 by one convolution
// with the base pmf; nothing is recomputed from scratch. The geometric
// variant uses the closed-form negative binomial instead, which yields
// the same values.
//
// The slice returned by PMF is owned by the iterator and is overwritten by
// the next call to Next; copy it if it must outlive the step.
//
//	it, err := d.Renewal(n)
//	for it.Next() {
//		use(it.Index(), it.PMF())
//	}
//	if err := it.Err(); err != nil { ... }
type Renewal struct {
	kern kernel
	base []float64 // pmf over [0, support)
	cur  []float64 // view into buf of the current step
	buf  []float64
	tmp  []float64
	n    int
	i    int
	err  error
}

// Renewal prepares an iterator over n renewal steps, with the base pmf
// truncated at MinSupport(DefaultSupportThreshold).
//
// Errors:
//   - disco.ErrInvalidArgument if n < 1.
//   - disco.ErrNumericAnomaly if the base pmf is not a valid probability vector.
func (d *Dist) Renewal(n int) (*Renewal, error) {
	if n < 1 {
		return nil, distErrorf(opRenewal, fmt.Errorf("multiplicity n=%d must be ≥ 1: %w", n, disco.ErrInvalidArgument))
	}

	support := d.MinSupport(DefaultSupportThreshold)
	base := make([]float64, support)
	for k := range base {
		base[k] = d.kern.pmf(k)
	}
	if err := checkVec(base); err != nil {
		return nil, distErrorf(opRenewal, err)
	}

	// The n-fold convolution of a length-s vector has length n(s-1)+1.
	maxLen := n*(support-1) + 1

	return &Renewal{
		kern: d.kern,
		base: base,
		buf:  make([]float64, maxLen),
		tmp:  make([]float64, maxLen),
		n:    n,
		i:    -1,
	}, nil
}

// Next advances to the next step. It returns false after n steps or on
// the first error; check Err afterwards.
func (r *Renewal) Next() bool {
	if r.err != nil || r.i+1 >= r.n {
		return false
	}
	r.i++

	s := len(r.base)
	length := (r.i+1)*(s-1) + 1

	switch {
	case r.i == 0:
		r.cur = r.buf[:s]
		copy(r.cur, r.base)
	default:
		if closed := r.kern.nsum(r.i+1, length); closed != nil {
			r.cur = r.buf[:length]
			copy(r.cur, closed)
			break
		}
		out := r.tmp[:length]
		convolve(out, r.cur, r.base)
		r.buf, r.tmp = r.tmp, r.buf
		r.cur = out
	}

	if err := checkVec(r.cur); err != nil {
		r.err = distErrorf(opRenewal, fmt.Errorf("step %d: %w", r.i, err))
		return false
	}

	return true
}

// PMF returns the pmf of Index()+1 summed draws.
func (r *Renewal) PMF() []float64 { return r.cur }

// Index returns the 0-based step number.
func (r *Renewal) Index() int { return r.i }

// Len returns the total number of steps n.
func (r *Renewal) Len() int { return r.n }

// Support returns the length of the truncated base pmf.
func (r *Renewal) Support() int { return len(r.base) }

// Err returns the error that stopped the iteration, if any.
func (r *Renewal) Err() error { return r.err }

// convolve writes the full linear convolution of a and b into dst, which
// must have length len(a)+len(b)-1.
func convolve(dst, a, b []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for i, av := range a {
		if av == 0 {
			continue
		}
		row := dst[i : i+len(b)]
		for j, bv := range b {
			row[j] += av * bv
		}
	}
}

// checkVec rejects NaN/Inf and entries outside [0,1].
func checkVec(v []float64) error {
	for k, p := range v {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return fmt.Errorf("index %d value=%v: %w", k, p, disco.ErrNumericAnomaly)
		}
	}

	return nil
}
