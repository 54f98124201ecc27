// SPDX-License-Identifier: MIT

package sweep

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/distribution"
)

// DefaultDensityChargingTime is the charging time of the density study.
const DefaultDensityChargingTime = 25

// Density strategies, used as Job.Tag. Each names the node count whose
// fitted scale is deployed regardless of the actual clique size.
const (
	// StrategyTwoNodes uses the scale fitted for a pair of nodes.
	StrategyTwoNodes = "2nodes"

	// StrategyRho1 uses the scale fitted for density ρ = 1, i.e. as many
	// nodes as slots in the charging time.
	StrategyRho1 = "rho1"

	// StrategyClairvoyant uses the scale fitted for the actual node count.
	StrategyClairvoyant = "clairvoyant"
)

// DensityJobs builds the density study from fitted scales: for every node
// count fitted at chargingTime, one geometric job per strategy, in
// ascending node order. Failed fits are ignored.
//
// Errors: disco.ErrInvalidArgument when chargingTime < 2 or when fits lack
// the two-node or the ρ = 1 (nodes == chargingTime) scale.
func DensityJobs(fits []Fit, chargingTime, slots int) ([]Job, error) {
	if chargingTime < 2 {
		return nil, fmt.Errorf("sweep: density charging time %d must be ≥ 2: %w", chargingTime, disco.ErrInvalidArgument)
	}
	if slots < 1 {
		slots = DefaultFitSlots
	}

	scales := make(map[int]float64)
	for _, f := range fits {
		if f.Err != nil || f.ChargingTime != chargingTime {
			continue
		}
		if _, dup := scales[f.Nodes]; !dup {
			scales[f.Nodes] = f.Scale
		}
	}
	two, ok := scales[2]
	if !ok {
		return nil, fmt.Errorf("sweep: no two-node fit at t_chr=%d: %w", chargingTime, disco.ErrInvalidArgument)
	}
	rho1, ok := scales[chargingTime]
	if !ok {
		return nil, fmt.Errorf("sweep: no %d-node (ρ=1) fit at t_chr=%d: %w", chargingTime, chargingTime, disco.ErrInvalidArgument)
	}

	nodes := make([]int, 0, len(scales))
	for n := range scales {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)

	jobs := make([]Job, 0, 3*len(nodes))
	for _, n := range nodes {
		base := Job{Kind: distribution.Geometric, ChargingTime: chargingTime, Nodes: n, Slots: slots}
		for _, s := range []struct {
			tag   string
			scale float64
		}{
			{StrategyTwoNodes, two},
			{StrategyRho1, rho1},
			{StrategyClairvoyant, scales[n]},
		} {
			j := base
			j.Scale, j.Tag = s.scale, s.tag
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}
