// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/disco"
)

// Kind selects one of the supported delay distributions.
type Kind int

const (
	// Geometric: scale is the success probability p ∈ (0, 1].
	Geometric Kind = iota

	// Uniform: scale is the integer upper bound n ≥ 1 (support 0..n-1).
	Uniform

	// Poisson: scale is the rate λ > 0.
	Poisson
)

// DefaultSupportThreshold is the pmf level below which mass is treated as
// negligible by MinSupport.
const DefaultSupportThreshold = 1e-6

// Operation tags used when wrapping sentinels.
const (
	opNew        = "New"
	opParseKind  = "ParseKind"
	opPMF        = "PMF"
	opCDF        = "CDF"
	opInverseCDF = "InverseCDF"
	opRenewal    = "Renewal"
	opRange      = "ParameterRange"
	opTable      = "GenTable"
	opSample     = "Sample"
)

// Kinds lists every supported Kind in a stable order.
var Kinds = []Kind{Geometric, Uniform, Poisson}

// String returns the canonical, capitalized name of k.
func (k Kind) String() string {
	switch k {
	case Geometric:
		return "Geometric"
	case Uniform:
		return "Uniform"
	case Poisson:
		return "Poisson"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a case-insensitive name to a Kind. It exists for the
// configuration and CLI boundary only; library code passes Kind values.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(name), k.String()) {
			return k, nil
		}
	}

	return 0, distErrorf(opParseKind, fmt.Errorf("unknown distribution %q: %w", name, disco.ErrInvalidArgument))
}

// Distribution is the capability set the rest of the model relies on.
// *Dist implements it for every Kind.
type Distribution interface {
	Kind() Kind
	Scale() float64
	PMF(k int) (float64, error)
	CDF(k int) (float64, error)
	PMFs(ks []int) ([]float64, error)
	CDFs(ks []int) ([]float64, error)
	InverseCDF(q float64) (int, error)
	Expectation() float64
	MinSupport(thr float64) int
	Renewal(n int) (*Renewal, error)
}

// kernel is the per-variant numeric core. Indices passed in are already
// validated as non-negative.
type kernel interface {
	pmf(k int) float64
	cdf(k int) float64
	mean() float64
	// mode is the index of the pmf peak; MinSupport scans from there.
	mode() int
	// quantile returns a closed-form inverse cdf when one exists.
	quantile(q float64) (int, bool)
	// nsum returns the closed-form pmf of r summed draws over [0, length),
	// or nil when the variant has none and must be convolved.
	nsum(r, length int) []float64
}

// Dist is a parameterized delay distribution.
type Dist struct {
	kind  Kind
	scale float64
	kern  kernel
}

var _ Distribution = (*Dist)(nil)

// New validates scale for kind and returns the distribution.
//
// Errors:
//   - disco.ErrInvalidArgument for an unknown kind or an out-of-domain
//     scale (NaN/Inf, p ∉ (0,1], non-integer or < 1 uniform bound, λ ≤ 0).
func New(kind Kind, scale float64) (*Dist, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, distErrorf(opNew, fmt.Errorf("%s scale %v: %w", kind, scale, disco.ErrInvalidArgument))
	}

	var kern kernel
	switch kind {
	case Geometric:
		if scale <= 0 || scale > 1 {
			return nil, distErrorf(opNew, fmt.Errorf("geometric p=%g not in (0,1]: %w", scale, disco.ErrInvalidArgument))
		}
		kern = geometric{p: scale}
	case Uniform:
		if scale < 1 || scale != math.Trunc(scale) {
			return nil, distErrorf(opNew, fmt.Errorf("uniform bound %g must be an integer ≥ 1: %w", scale, disco.ErrInvalidArgument))
		}
		kern = uniform{n: int(scale)}
	case Poisson:
		if scale <= 0 {
			return nil, distErrorf(opNew, fmt.Errorf("poisson rate %g must be > 0: %w", scale, disco.ErrInvalidArgument))
		}
		kern = newPoisson(scale)
	default:
		return nil, distErrorf(opNew, fmt.Errorf("unknown kind %d: %w", int(kind), disco.ErrInvalidArgument))
	}

	return &Dist{kind: kind, scale: scale, kern: kern}, nil
}

// Kind returns the variant.
func (d *Dist) Kind() Kind { return d.kind }

// Scale returns the scale/shape parameter the distribution was built with.
func (d *Dist) Scale() float64 { return d.scale }

// PMF returns P(X = k).
func (d *Dist) PMF(k int) (float64, error) {
	if k < 0 {
		return 0, distErrorf(opPMF, fmt.Errorf("k=%d: %w", k, disco.ErrInvalidArgument))
	}

	return checkProb(opPMF, k, d.kern.pmf(k))
}

// CDF returns P(X ≤ k).
func (d *Dist) CDF(k int) (float64, error) {
	if k < 0 {
		return 0, distErrorf(opCDF, fmt.Errorf("k=%d: %w", k, disco.ErrInvalidArgument))
	}

	return checkProb(opCDF, k, d.kern.cdf(k))
}

// PMFs evaluates PMF at every index of ks; the result has len(ks).
func (d *Dist) PMFs(ks []int) ([]float64, error) {
	return d.eval(ks, d.PMF)
}

// CDFs evaluates CDF at every index of ks; the result has len(ks).
func (d *Dist) CDFs(ks []int) ([]float64, error) {
	return d.eval(ks, d.CDF)
}

func (d *Dist) eval(ks []int, f func(int) (float64, error)) ([]float64, error) {
	out := make([]float64, len(ks))
	var err error
	for i, k := range ks {
		if out[i], err = f(k); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Expectation returns the distribution mean (1/p for Geometric, see the
// package documentation on indexing).
func (d *Dist) Expectation() float64 { return d.kern.mean() }

// String implements fmt.Stringer.
func (d *Dist) String() string {
	return fmt.Sprintf("%s(%g)", d.kind, d.scale)
}

// checkProb rejects NaN/Inf and values outside [0,1].
func checkProb(op string, k int, p float64) (float64, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return 0, distErrorf(op, fmt.Errorf("k=%d value=%v: %w", k, p, disco.ErrNumericAnomaly))
	}

	return p, nil
}

// distErrorf tags err with the operation name.
func distErrorf(op string, err error) error {
	return fmt.Errorf("distribution: %s: %w", op, err)
}
