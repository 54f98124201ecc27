// SPDX-License-Identifier: MIT

package disco

import (
	"errors"
	"fmt"
)

// NOTE ON WRAPPING
// ----------------
// Packages wrap these sentinels with their own context, for example
// fmt.Errorf("activity: slots=%d < period=%d: %w", n, p, disco.ErrInvalidArgument).
// Callers match with errors.Is only; messages are not part of the API.

var (
	// ErrInvalidArgument marks malformed parameters: node count mismatch,
	// missing offsets for heterogeneous nodes, scalar offset with more than
	// two nodes, a horizon shorter than one renewal period, a non-positive
	// convolution multiplicity, an out-of-domain slot index.
	ErrInvalidArgument = errors.New("disco: invalid argument")

	// ErrNumericAnomaly marks a probability outside [0,1], a NaN or an Inf
	// observed while evaluating a distribution, convolving or aggregating.
	// Values are never clamped; the computation is aborted instead.
	ErrNumericAnomaly = errors.New("disco: numeric anomaly")

	// ErrNotConverged is matched by *ConvergenceWarning. It is advisory.
	ErrNotConverged = errors.New("disco: discovery fraction not converged")

	// ErrQuantileNotReached is returned when the discovery fraction never
	// crosses the requested quantile within the simulated horizon.
	ErrQuantileNotReached = errors.New("disco: quantile not reached")
)

// ConvergenceWarning reports that the discovery fraction at the end of the
// horizon is below the target threshold. The result it accompanies is
// still valid; re-run with more slots for a converged estimate.
type ConvergenceWarning struct {
	Final     float64 // discovery fraction at the last slot
	Threshold float64 // target it was compared against
}

// Error implements error.
func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("disco: not converged: final=%.4f < threshold=%.4f", w.Final, w.Threshold)
}

// Is makes errors.Is(w, ErrNotConverged) hold.
func (w *ConvergenceWarning) Is(target error) bool {
	return target == ErrNotConverged
}
