// SPDX-License-Identifier: MIT

package sweep

import (
	"context"
	"math"
)

var (
	sqrtEps    = math.Sqrt(2.220446049250313e-16)
	goldenMean = 0.5 * (3 - math.Sqrt(5))
)

// minimum is the result of minimizeBounded.
type minimum struct {
	X, F  float64
	Evals int
}

// minimizeBounded finds a local minimum of f on [lo, hi] with Brent's
// method: parabolic interpolation where it is acceptable, golden-section
// steps otherwise. It stops when the bracket around the best point is
// within xtol or after maxEval evaluations.
func minimizeBounded(ctx context.Context, f func(float64) (float64, error), lo, hi, xtol float64, maxEval int) (minimum, error) {
	a, b := lo, hi
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	var rat, e float64

	fx, err := f(xf)
	if err != nil {
		return minimum{}, err
	}
	n := 1
	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xtol/3
	tol2 := 2 * tol1

	for math.Abs(xf-xm) > tol2-0.5*(b-a) && n < maxEval {
		if err := ctx.Err(); err != nil {
			return minimum{}, err
		}

		golden := true
		if math.Abs(e) > tol1 {
			// Try a parabola through the three best points.
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x := xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}
		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x := xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu, err := f(x)
		if err != nil {
			return minimum{}, err
		}
		n++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xtol/3
		tol2 = 2 * tol1
	}

	return minimum{X: xf, F: fx, Evals: n}, nil
}

// signOrOne is sign(v), with 0 mapped to +1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
