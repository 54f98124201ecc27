// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/rendezvous"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Fraction is the per-slot discovery fraction of a model: the mean, over
// all links, of the probability that the link has had a rendezvous.
type Fraction struct {
	// Values is non-decreasing, one entry per aligned slot.
	Values []float64

	// Threshold is the convergence target Values was checked against.
	Threshold float64

	// Warning is set when the final value is below Threshold. The values
	// are still valid; a longer horizon gives a converged estimate.
	Warning *disco.ConvergenceWarning
}

// Final returns the last value, or 0 for an empty fraction.
func (f Fraction) Final() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	return f.Values[len(f.Values)-1]
}

// Converged reports whether the final value reached Threshold.
func (f Fraction) Converged() bool { return f.Warning == nil }

// Quantile returns the first slot whose value is ≥ q. ok is false when no
// slot reaches q within the horizon.
func (f Fraction) Quantile(q float64) (slot int, ok bool) {
	for i, v := range f.Values {
		if v >= q {
			return i, true
		}
	}
	return 0, false
}

// Latency returns the expected discovery slot Σ_j (f[j+1] − f[j])·j. The
// missing mass of an unconverged fraction is not accounted for, so the
// value underestimates the latency in that case.
func (f Fraction) Latency() float64 {
	var lat float64
	for j := 0; j+1 < len(f.Values); j++ {
		lat += (f.Values[j+1] - f.Values[j]) * float64(j)
	}
	return lat
}

// Rendezvous returns the rows × links rendezvous probability matrix,
// computed on Jobs() workers.
func (m *Model) Rendezvous(ctx context.Context) (*mat.Dense, error) {
	rz, err := rendezvous.ComputeParallel(ctx, m.act, m.jobs,
		rendezvous.WithLogger(m.logger),
		rendezvous.WithObserver(m.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return rz, nil
}

// CDF returns, per link, the probability of at least one rendezvous up to
// and including each slot: 1 − Π_{s≤t}(1 − p_s).
func (m *Model) CDF(ctx context.Context) (*mat.Dense, error) {
	rz, err := m.Rendezvous(ctx)
	if err != nil {
		return nil, err
	}

	// In place, row by row, keeping the running survival per link.
	rows, links := rz.Dims()
	surv := make([]float64, links)
	for j := range surv {
		surv[j] = 1
	}
	for r := 0; r < rows; r++ {
		row := rz.RawRowView(r)
		for j, p := range row {
			surv[j] *= 1 - p
			row[j] = 1 - surv[j]
		}
	}

	return rz, nil
}

// DiscoveryFraction returns the mean CDF across links per slot. A final
// value below threshold sets Fraction.Warning, logs a warning and counts a
// convergence warning; it is not an error.
//
// Errors:
//   - disco.ErrInvalidArgument: threshold outside [0, 1].
//   - disco.ErrNumericAnomaly: a NaN in the aggregate.
//   - ctx.Err() on cancellation.
func (m *Model) DiscoveryFraction(ctx context.Context, threshold float64) (Fraction, error) {
	if err := checkUnit("threshold", threshold); err != nil {
		return Fraction{}, err
	}
	cdf, err := m.CDF(ctx)
	if err != nil {
		return Fraction{}, err
	}

	rows, links := cdf.Dims()
	values := make([]float64, rows)
	for r := range values {
		v := floats.Sum(cdf.RawRowView(r)) / float64(links)
		if math.IsNaN(v) {
			return Fraction{}, fmt.Errorf("model: discovery fraction at slot %d is NaN: %w", r, disco.ErrNumericAnomaly)
		}
		values[r] = v
	}

	fr := Fraction{Values: values, Threshold: threshold}
	if final := fr.Final(); final < threshold {
		fr.Warning = &disco.ConvergenceWarning{Final: final, Threshold: threshold}
		m.logger.Warn("not converged", "final", final, "threshold", threshold, "slots", m.slots)
		m.metrics.ConvergenceWarning()
	}

	return fr, nil
}

// DiscoveryQuantile returns the first slot at which the discovery fraction
// reaches q. The fraction is checked for convergence against q itself.
//
// Errors: as DiscoveryFraction, plus disco.ErrQuantileNotReached when the
// fraction stays below q for the whole horizon.
func (m *Model) DiscoveryQuantile(ctx context.Context, q float64) (int, error) {
	if err := checkUnit("quantile", q); err != nil {
		return 0, err
	}
	fr, err := m.DiscoveryFraction(ctx, q)
	if err != nil {
		return 0, err
	}
	slot, ok := fr.Quantile(q)
	if !ok {
		return 0, fmt.Errorf("model: quantile %g not reached in %d rows (final %.4f): %w",
			q, len(fr.Values), fr.Final(), disco.ErrQuantileNotReached)
	}
	return slot, nil
}

// DiscoveryLatency returns the expected number of slots until discovery,
// checked against DefaultConvergenceThreshold.
func (m *Model) DiscoveryLatency(ctx context.Context) (float64, error) {
	fr, err := m.DiscoveryFraction(ctx, DefaultConvergenceThreshold)
	if err != nil {
		return 0, err
	}
	return fr.Latency(), nil
}

func checkUnit(what string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("model: %s %v outside [0,1]: %w", what, v, disco.ErrInvalidArgument)
	}
	return nil
}
