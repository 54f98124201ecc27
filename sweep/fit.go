// SPDX-License-Identifier: MIT

package sweep

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/model"
	"github.com/katalvlaran/disco/parallel"
)

// FitJob names one scale optimization.
type FitJob struct {
	ChargingTime int
	Nodes        int
	Slots        int
}

// Fit is the geometric parameter with the lowest discovery latency found
// for a FitJob.
type Fit struct {
	FitJob

	Scale       float64
	Latency     float64
	Evaluations int
	Elapsed     time.Duration
	Err         error
}

// FitGrid returns the cross product of charging times and node counts.
func FitGrid(chargingTimes, nodes []int, slots int) []FitJob {
	out := make([]FitJob, 0, len(chargingTimes)*len(nodes))
	for _, c := range chargingTimes {
		for _, n := range nodes {
			out = append(out, FitJob{ChargingTime: c, Nodes: n, Slots: slots})
		}
	}
	return out
}

// DefaultFitJobs is the reference grid: two nodes at charging times
// 5, 10, …, 2495, then charging time 25 with 3, 8, …, 108 nodes plus the
// 25-node (ρ = 1) clique DensityJobs needs.
func DefaultFitJobs(slots int) []FitJob {
	var times, nodes []int
	for c := 5; c < 2500; c += 5 {
		times = append(times, c)
	}
	for n := 3; n < 110; n += 5 {
		nodes = append(nodes, n)
	}
	c := DefaultDensityChargingTime
	if i, found := slices.BinarySearch(nodes, c); !found {
		nodes = slices.Insert(nodes, i, c)
	}
	return append(FitGrid(times, []int{2}, slots), FitGrid([]int{c}, nodes, slots)...)
}

// FitScale minimizes the discovery latency of a homogeneous geometric
// clique over p ∈ ParameterRange(Geometric, c, 2).
func FitScale(ctx context.Context, job FitJob, opts ...Option) (Fit, error) {
	o := gatherOptions(opts)
	return fitScale(ctx, job, o)
}

func fitScale(ctx context.Context, job FitJob, o options) (Fit, error) {
	start := time.Now()
	if job.Slots < 1 {
		job.Slots = DefaultFitSlots
	}
	if job.Nodes == 0 {
		job.Nodes = model.DefaultNodes
	}
	bounds, err := distribution.ParameterRange(distribution.Geometric, job.ChargingTime, 2)
	if err != nil {
		return Fit{}, fmt.Errorf("sweep: fit c=%d: %w", job.ChargingTime, err)
	}

	objective := func(p float64) (float64, error) {
		m, err := model.New(distribution.Geometric, p, job.ChargingTime,
			model.WithNodes(job.Nodes),
			model.WithSlots(job.Slots),
			model.WithJobs(1),
			model.WithMetrics(o.metrics),
		)
		if err != nil {
			return 0, err
		}
		fr, err := m.DiscoveryFraction(ctx, o.threshold)
		if err != nil {
			return 0, err
		}
		return fr.Latency(), nil
	}

	best, err := minimizeBounded(ctx, objective, bounds[0], bounds[len(bounds)-1], o.xtol, o.maxEval)
	if err != nil {
		return Fit{}, fmt.Errorf("sweep: fit c=%d nodes=%d: %w", job.ChargingTime, job.Nodes, err)
	}
	if best.Evals >= o.maxEval {
		o.logger.Warn("fit hit evaluation limit", "charging_time", job.ChargingTime, "nodes", job.Nodes, "evals", best.Evals)
	}

	return Fit{
		FitJob:      job,
		Scale:       best.X,
		Latency:     best.F,
		Evaluations: best.Evals,
		Elapsed:     time.Since(start),
	}, nil
}

// RunFits runs FitScale for every job on the worker pool. Like Run, it
// records per-job failures and returns an error only on cancellation.
func RunFits(ctx context.Context, jobs []FitJob, opts ...Option) ([]Fit, error) {
	o := gatherOptions(opts)
	o.logger.Info("running fits", "jobs", len(jobs), "workers", o.workers)

	fits, err := parallel.Map(ctx, jobs, o.workers, func(ctx context.Context, j FitJob) (Fit, error) {
		fit, err := fitScale(ctx, j, o)
		switch {
		case err == nil:
			o.metrics.SweepJob(metrics.StatusOK)
			o.logger.Debug("fit done", "charging_time", j.ChargingTime, "nodes", j.Nodes, "scale", fit.Scale, "latency", fit.Latency)
			return fit, nil
		case ctx.Err() != nil:
			o.metrics.SweepJob(metrics.StatusCanceled)
			return Fit{}, ctx.Err()
		default:
			o.metrics.SweepJob(metrics.StatusFailed)
			o.logger.Warn("fit failed", "charging_time", j.ChargingTime, "nodes", j.Nodes, "err", err)
			return Fit{FitJob: j, Err: err}, nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return fits, nil
}
