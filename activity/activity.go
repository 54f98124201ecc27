// SPDX-License-Identifier: MIT

package activity

import (
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/distribution"
	"gonum.org/v1/gonum/stat"
)

// Result carries the activity vector together with how it was obtained.
type Result struct {
	// Activity is the per-slot probability of being active, len == slots.
	Activity []float64

	// Support is the truncated delay support, Period = chargingTime + Support.
	Support int
	Period  int

	// Wakeups is the number of renewal steps requested; Steps the number
	// actually convolved before the horizon was covered or converged.
	Wakeups int
	Steps   int

	// Converged reports the fast-forward; StableFrom is the first slot of
	// the repeated window.
	Converged  bool
	StableFrom int
}

// Synthesize returns the activity vector of a node with delay distribution
// d and the given charging time, over slots slots.
//
// Errors:
//   - disco.ErrInvalidArgument: chargingTime < 1, or slots shorter than one
//     renewal period (chargingTime + MinSupport), or too short for a
//     single full wake-up (non-positive multiplicity).
//   - disco.ErrNumericAnomaly: any slot probability outside [0,1].
func Synthesize(d distribution.Distribution, chargingTime, slots int, opts ...Option) ([]float64, error) {
	res, err := SynthesizeDetailed(d, chargingTime, slots, opts...)
	if err != nil {
		return nil, err
	}
	return res.Activity, nil
}

// SynthesizeDetailed is Synthesize with convergence bookkeeping.
func SynthesizeDetailed(d distribution.Distribution, chargingTime, slots int, opts ...Option) (Result, error) {
	o := gatherOptions(opts)

	// Stage 1 (Validate): horizon must hold at least one renewal period.
	if d == nil {
		return Result{}, fmt.Errorf("activity: nil distribution: %w", disco.ErrInvalidArgument)
	}
	if chargingTime < 1 {
		return Result{}, fmt.Errorf("activity: charging time %d must be ≥ 1: %w", chargingTime, disco.ErrInvalidArgument)
	}
	support := d.MinSupport(distribution.DefaultSupportThreshold)
	period := chargingTime + support
	if slots < period {
		return Result{}, fmt.Errorf("activity: slots=%d shorter than one wakeup period %d: %w", slots, period, disco.ErrInvalidArgument)
	}

	// Stage 2 (Prepare): one renewal step per period that fits, minus one.
	wakeups := slots/period - 1
	it, err := d.Renewal(wakeups)
	if err != nil {
		return Result{}, fmt.Errorf("activity: %d wakeups: %w", wakeups, err)
	}
	o.logger.Debug("calculating wakeups", "dist", d.Kind().String(), "scale", d.Scale(), "charging_time", chargingTime, "wakeups", wakeups)

	res := Result{
		Activity: make([]float64, slots),
		Support:  support,
		Period:   period,
		Wakeups:  wakeups,
	}
	out := res.Activity
	window := o.windowPeriods * period

	// Stage 3 (Execute): accumulate shifted renewal pmfs until converged.
	for it.Next() {
		res.Steps++
		off := it.Index() * chargingTime
		pmf := it.PMF()
		end := off + len(pmf)
		if end > slots {
			end = slots
		}
		for j := off; j < end; j++ {
			out[j] += pmf[j-off]
		}

		if off <= window {
			continue
		}
		start := off - window
		if stat.StdDev(out[start:off], nil) < o.tolerance {
			o.logger.Debug("activity converged, fast-forwarding", "slot", start, "step", it.Index())
			repeat(out, start, off)
			res.Converged = true
			res.StableFrom = start
			break
		}
	}
	if err := it.Err(); err != nil {
		return Result{}, fmt.Errorf("activity: %w", err)
	}

	// Stage 4 (Finalize): reject anything that is not a probability.
	if err := checkActivity(out); err != nil {
		return Result{}, err
	}

	return res, nil
}

// checkActivity rejects NaN and values outside [0,1].
func checkActivity(v []float64) error {
	for t, p := range v {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("activity: slot %d probability %v: %w", t, p, disco.ErrNumericAnomaly)
		}
	}
	return nil
}

// repeat tiles v[start:stop] over v[stop:].
func repeat(v []float64, start, stop int) {
	w := v[start:stop]
	for j := stop; j < len(v); j += len(w) {
		copy(v[j:], w)
	}
}
