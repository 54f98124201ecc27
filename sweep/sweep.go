// SPDX-License-Identifier: MIT

package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/model"
	"github.com/katalvlaran/disco/parallel"
)

// Job is one homogeneous model evaluation.
type Job struct {
	Kind         distribution.Kind
	Scale        float64
	ChargingTime int
	Nodes        int
	Slots        int

	// Tag labels the job in reports, e.g. the density strategy.
	Tag string
}

// Record is the outcome of a Job. Err is non-nil when the model could not
// be built or evaluated; the numeric fields are then zero.
type Record struct {
	Job

	Latency   float64
	Final     float64
	Converged bool
	Elapsed   time.Duration
	Err       error
}

// Status classifies the record for metrics and reports.
func (r Record) Status() string {
	switch {
	case r.Err != nil:
		return metrics.StatusFailed
	case !r.Converged:
		return metrics.StatusWarning
	default:
		return metrics.StatusOK
	}
}

// DistributionJobs returns, for every kind, points jobs spread over the
// kind's parameter range at charging time c, with two nodes each.
func DistributionJobs(c, points int, kinds []distribution.Kind, slots int) ([]Job, error) {
	if slots < 1 {
		slots = DefaultDistributionSlots
	}
	var jobs []Job
	for _, k := range kinds {
		scales, err := distribution.ParameterRange(k, c, points)
		if err != nil {
			return nil, fmt.Errorf("sweep: %w", err)
		}
		for _, s := range scales {
			jobs = append(jobs, Job{Kind: k, Scale: s, ChargingTime: c, Nodes: model.DefaultNodes, Slots: slots})
		}
	}
	return jobs, nil
}

// Run evaluates jobs concurrently and returns one record per job in input
// order. Per-job failures are recorded, not returned; the error is
// non-nil only when ctx is cancelled.
func Run(ctx context.Context, jobs []Job, opts ...Option) ([]Record, error) {
	o := gatherOptions(opts)
	o.logger.Info("running sweep", "jobs", len(jobs), "workers", o.workers)

	recs, err := parallel.Map(ctx, jobs, o.workers, func(ctx context.Context, j Job) (Record, error) {
		rec := evaluate(ctx, j, o)
		if errors.Is(rec.Err, context.Canceled) || errors.Is(rec.Err, context.DeadlineExceeded) {
			o.metrics.SweepJob(metrics.StatusCanceled)
			return Record{}, rec.Err
		}
		o.metrics.SweepJob(rec.Status())
		if rec.Err != nil {
			o.logger.Warn("job failed", "dist", j.Kind.String(), "scale", j.Scale, "charging_time", j.ChargingTime, "err", rec.Err)
		} else {
			o.logger.Debug("job done", "dist", j.Kind.String(), "scale", j.Scale, "latency", rec.Latency, "elapsed", rec.Elapsed)
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return recs, nil
}

func evaluate(ctx context.Context, j Job, o options) Record {
	start := time.Now()
	rec := Record{Job: j}

	m, err := model.New(j.Kind, j.Scale, j.ChargingTime,
		model.WithNodes(j.Nodes),
		model.WithSlots(j.Slots),
		model.WithJobs(1),
		model.WithLogger(o.logger),
		model.WithMetrics(o.metrics),
	)
	if err != nil {
		rec.Err = err
		return rec
	}
	fr, err := m.DiscoveryFraction(ctx, o.threshold)
	if err != nil {
		rec.Err = err
		return rec
	}

	rec.Latency = fr.Latency()
	rec.Final = fr.Final()
	rec.Converged = fr.Converged()
	rec.Elapsed = time.Since(start)
	return rec
}
