// Package disco models neighbour-discovery latency for duty-cycled
// wireless nodes.
//
// What is modelled?
//
//	Every node charges for a fixed number of slots, then wakes up after a
//	random delay drawn from a discrete distribution and is active for one
//	slot. In a clique of N nodes, two nodes discover each other in a slot
//	when both of them are active and no other node is (a rendezvous).
//
// Under the hood, the work is split across subpackages:
//
//	distribution/ — Geometric, Uniform and Poisson delays (pmf, cdf,
//	                inverse cdf, renewal convolutions, quantized tables)
//	activity/     — per-slot probability of being active (renewal process)
//	rendezvous/   — link enumeration and per-slot rendezvous probability
//	parallel/     — slot-axis partitioning and an ordered worker-pool map
//	model/        — the Model facade: alignment, CDF, latency, quantiles
//	sweep/        — parameter sweeps and bounded scale optimisation
//	lut/          — float32 scale lookup tables for firmware
//	store/        — SQLite persistence of sweep results
//
// Quick example:
//
//	m, err := model.New(distribution.Geometric, 0.5, 100, model.WithNodes(4))
//	if err != nil {
//		// errors.Is(err, disco.ErrInvalidArgument) ...
//	}
//	lat, err := m.DiscoveryLatency(ctx)
//
// This root package only holds the error taxonomy shared by all of the
// above, so every layer can be matched with errors.Is.
package disco
