// Package sweep evaluates many discovery models over parameter grids.
//
// Three harnesses are provided:
//
//   - Run evaluates a list of Jobs (one model each) on a worker pool and
//     reports discovery latency and final discovery fraction per job.
//     DistributionJobs builds the usual grid: every distribution family
//     over its parameter range at a fixed charging time.
//   - FitScale searches the geometric parameter that minimizes discovery
//     latency for a charging time and clique size with a bounded Brent
//     minimizer; RunFits does so for many (charging time, nodes) pairs.
//   - DensityJobs turns fitted scales into Jobs that compare, at one
//     charging time and growing clique sizes, the scale fitted for two
//     nodes, the one fitted for density ρ = 1 and the one fitted for the
//     actual size. ReadFitsCSV loads the fits written by WriteFitsCSV.
//
// Each model is evaluated with a single rendezvous job; parallelism comes
// from running jobs side by side. A job that fails records its error and
// the sweep continues; only cancellation aborts a sweep.
package sweep
